package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/collabhub/timesheet-api/internal/core/domain"
)

// AccountRepository persists the three account kinds behind one shared id
// registry.
//
// Create methods register the id first and return domain.ErrDuplicateAccount
// when the natural key (email or provider subject) is already taken.
// Find methods return domain.ErrAccountNotFound on a miss.
type AccountRepository interface {
	FindLocalByEmail(ctx context.Context, email string) (*domain.LocalAccount, error)
	CreateLocal(ctx context.Context, acct *domain.LocalAccount) error
	TouchLocalLogin(ctx context.Context, id uuid.UUID, at time.Time) error

	FindFederatedBySubject(ctx context.Context, provider domain.AccountKind, subject string) (*domain.FederatedAccount, error)
	CreateFederated(ctx context.Context, acct *domain.FederatedAccount) error
	UpdateFederatedLogin(ctx context.Context, acct *domain.FederatedAccount) error

	// KindOf resolves which store owns id through the registry.
	KindOf(ctx context.Context, id uuid.UUID) (domain.AccountKind, error)
	// ExistsIn probes a single kind's table for id.
	ExistsIn(ctx context.Context, kind domain.AccountKind, id uuid.UUID) (bool, error)
}
