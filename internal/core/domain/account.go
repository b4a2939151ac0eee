package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// AccountKind names the identity store an account lives in.
type AccountKind string

const (
	KindLocal  AccountKind = "local"
	KindGoogle AccountKind = "google"
	KindGitHub AccountKind = "github"
)

// Kinds lists every account kind in existence-probe order.
var Kinds = []AccountKind{KindLocal, KindGoogle, KindGitHub}

// Valid reports whether k is one of the known kinds.
func (k AccountKind) Valid() bool {
	switch k {
	case KindLocal, KindGoogle, KindGitHub:
		return true
	}
	return false
}

// Federated reports whether k is backed by an external identity issuer.
func (k AccountKind) Federated() bool {
	return k == KindGoogle || k == KindGitHub
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnverifiedIdentity = errors.New("external identity could not be verified")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrDuplicateAccount   = errors.New("account already exists")
	ErrUnknownAccount     = errors.New("account id does not exist")
)

// Account is the capability every account variant shares, whatever store it
// was resolved from.
type Account interface {
	AccountID() uuid.UUID
	Kind() AccountKind
	ContactEmail() string
	DisplayName() string
	IsActive() bool
}

// LocalAccount is a password-authenticated account.
type LocalAccount struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Username     string     `json:"username,omitempty"`
	Active       bool       `json:"active"`
	AvatarURL    string     `json:"avatar_url,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ModifiedAt   time.Time  `json:"modified_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

func (a *LocalAccount) AccountID() uuid.UUID { return a.ID }
func (a *LocalAccount) Kind() AccountKind    { return KindLocal }
func (a *LocalAccount) ContactEmail() string { return a.Email }
func (a *LocalAccount) DisplayName() string  { return a.Username }
func (a *LocalAccount) IsActive() bool       { return a.Active }

// FederatedAccount is an account whose identity is asserted by Google or
// GitHub. ID and Subject are immutable once created.
type FederatedAccount struct {
	ID          uuid.UUID   `json:"id"`
	Provider    AccountKind `json:"provider"`
	Subject     string      `json:"subject"`
	Email       string      `json:"email"`
	Name        string      `json:"name,omitempty"`
	Picture     string      `json:"picture,omitempty"`
	Username    string      `json:"username,omitempty"`
	ClientID    string      `json:"client_id"`
	Credential  string      `json:"-"`
	SelectBy    string      `json:"select_by,omitempty"`
	Active      bool        `json:"active"`
	CreatedAt   time.Time   `json:"created_at"`
	ModifiedAt  time.Time   `json:"modified_at"`
	LastLoginAt time.Time   `json:"last_login_at"`
}

func (a *FederatedAccount) AccountID() uuid.UUID { return a.ID }
func (a *FederatedAccount) Kind() AccountKind    { return a.Provider }
func (a *FederatedAccount) ContactEmail() string { return a.Email }
func (a *FederatedAccount) DisplayName() string  { return a.Name }
func (a *FederatedAccount) IsActive() bool       { return a.Active }

// Refresh copies the mutable profile fields of a fresh login onto the account.
func (a *FederatedAccount) Refresh(id *VerifiedIdentity, login FederatedLogin, at time.Time) {
	a.Email = id.Email
	a.Name = id.Name
	a.Picture = id.Picture
	if id.Username != "" {
		a.Username = id.Username
	}
	a.ClientID = login.ClientID
	a.Credential = login.Credential
	if login.SelectBy != "" {
		a.SelectBy = login.SelectBy
	}
	a.ModifiedAt = at
	a.LastLoginAt = at
}

// NextLoginTime returns now, bumped past prev so that consecutive logins
// always record a strictly later timestamp.
func NextLoginTime(prev *time.Time, now time.Time) time.Time {
	now = now.UTC().Truncate(time.Millisecond)
	if prev != nil && !now.After(*prev) {
		return prev.Add(time.Millisecond)
	}
	return now
}
