package metrics

import (
	"context"

	"github.com/google/uuid"

	"github.com/collabhub/timesheet-api/internal/core/ports"
)

type instrumentedOracle struct {
	next ports.AccountOracle
}

// InstrumentOracle counts every existence check answered by next.
func InstrumentOracle(next ports.AccountOracle) ports.AccountOracle {
	return instrumentedOracle{next: next}
}

func (o instrumentedOracle) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := o.next.Exists(ctx, id)
	switch {
	case err != nil:
		AccountExistenceChecksTotal.WithLabelValues("error").Inc()
	case ok:
		AccountExistenceChecksTotal.WithLabelValues("found").Inc()
	default:
		AccountExistenceChecksTotal.WithLabelValues("missing").Inc()
	}
	return ok, err
}
