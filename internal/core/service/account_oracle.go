package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/collabhub/timesheet-api/internal/core/domain"
	"github.com/collabhub/timesheet-api/internal/core/ports"
)

// AccountOracle is the single answer to "does this account id exist".
// Inactive accounts still exist.
type AccountOracle struct {
	repo ports.AccountRepository
}

func NewAccountOracle(repo ports.AccountRepository) *AccountOracle {
	return &AccountOracle{repo: repo}
}

func (o *AccountOracle) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}

	kind, err := o.repo.KindOf(ctx, id)
	switch {
	case err == nil:
		ok, err := o.repo.ExistsIn(ctx, kind, id)
		if err != nil {
			return false, fmt.Errorf("probe %s accounts: %w", kind, err)
		}
		return ok, nil
	case !errors.Is(err, domain.ErrAccountNotFound):
		return false, fmt.Errorf("resolve account kind: %w", err)
	}

	// Accounts imported without a registry entry are found by probing each
	// store in turn.
	for _, k := range domain.Kinds {
		ok, err := o.repo.ExistsIn(ctx, k, id)
		if err != nil {
			return false, fmt.Errorf("probe %s accounts: %w", k, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
