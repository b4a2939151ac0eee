package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fixedOracle struct {
	ok  bool
	err error
}

func (o fixedOracle) Exists(context.Context, uuid.UUID) (bool, error) { return o.ok, o.err }

func TestInstrumentOracle(t *testing.T) {
	cases := []struct {
		oracle fixedOracle
		label  string
	}{
		{fixedOracle{ok: true}, "found"},
		{fixedOracle{}, "missing"},
		{fixedOracle{err: errors.New("mongo down")}, "error"},
	}

	for _, tc := range cases {
		before := testutil.ToFloat64(AccountExistenceChecksTotal.WithLabelValues(tc.label))
		ok, err := InstrumentOracle(tc.oracle).Exists(context.Background(), uuid.New())
		if ok != tc.oracle.ok || !errors.Is(err, tc.oracle.err) {
			t.Fatalf("%s: result not passed through: %v %v", tc.label, ok, err)
		}
		if got := testutil.ToFloat64(AccountExistenceChecksTotal.WithLabelValues(tc.label)) - before; got != 1 {
			t.Errorf("%s: expected counter +1, got %v", tc.label, got)
		}
	}
}
