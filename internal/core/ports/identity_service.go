package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/collabhub/timesheet-api/internal/core/domain"
)

// RegisterInput carries a local registration request.
type RegisterInput struct {
	Email    string
	Password string
	Username string
}

// AuthResult is returned by every successful identity operation.
//
// Created tells whether the call provisioned a new account. NotifyErr is set
// when the account operation committed but the domain event could not be
// delivered; it never turns a success into a failure.
type AuthResult struct {
	Account   domain.Account
	Token     string
	Created   bool
	Event     domain.EventName
	NotifyErr error
}

// IdentityService resolves every kind of sign-in to a canonical account.
type IdentityService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	FederatedLogin(ctx context.Context, login domain.FederatedLogin) (*AuthResult, error)
}

// AccountOracle answers whether an account id exists in any account store.
type AccountOracle interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// SessionClaims are the verified contents of a session token.
type SessionClaims struct {
	Subject   uuid.UUID
	Email     string
	Name      string
	TokenID   string
	Issuer    string
	ExpiresAt int64
}

// TokenIssuer mints and validates stateless session tokens.
type TokenIssuer interface {
	Issue(acct domain.Account) (string, error)
	Validate(token string) (*SessionClaims, error)
}

// IdentityVerifier validates a federated login with its issuer. Any returned
// error means the login must be rejected.
type IdentityVerifier interface {
	Verify(ctx context.Context, login domain.FederatedLogin) (*domain.VerifiedIdentity, error)
}

// EventPublisher delivers identity events to the notification stream.
type EventPublisher interface {
	PublishIdentityEvent(ctx context.Context, ev domain.IdentityEvent) error
}
