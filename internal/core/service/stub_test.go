package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/collabhub/timesheet-api/internal/core/domain"
)

type federatedKey struct {
	provider domain.AccountKind
	subject  string
}

// stubAccountRepo keeps the registry and the three stores in memory.
type stubAccountRepo struct {
	mu        sync.Mutex
	registry  map[uuid.UUID]domain.AccountKind
	local     map[string]*domain.LocalAccount
	federated map[federatedKey]*domain.FederatedAccount

	findErr   error
	createErr error
	// raceOnce makes the next federated insert lose to a concurrent writer.
	raceOnce *domain.FederatedAccount
	creates  int
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{
		registry:  make(map[uuid.UUID]domain.AccountKind),
		local:     make(map[string]*domain.LocalAccount),
		federated: make(map[federatedKey]*domain.FederatedAccount),
	}
}

func (r *stubAccountRepo) FindLocalByEmail(_ context.Context, email string) (*domain.LocalAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	a, ok := r.local[email]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *stubAccountRepo) CreateLocal(_ context.Context, acct *domain.LocalAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.registry[acct.ID]; ok {
		return domain.ErrDuplicateAccount
	}
	if _, ok := r.local[acct.Email]; ok {
		return domain.ErrDuplicateAccount
	}
	r.creates++
	r.registry[acct.ID] = domain.KindLocal
	clone := *acct
	r.local[acct.Email] = &clone
	return nil
}

func (r *stubAccountRepo) TouchLocalLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.local {
		if a.ID == id {
			a.LastLoginAt = &at
			a.ModifiedAt = at
			return nil
		}
	}
	return domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindFederatedBySubject(_ context.Context, provider domain.AccountKind, subject string) (*domain.FederatedAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	a, ok := r.federated[federatedKey{provider, subject}]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *stubAccountRepo) CreateFederated(_ context.Context, acct *domain.FederatedAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if r.raceOnce != nil {
		winner := r.raceOnce
		r.raceOnce = nil
		r.registry[winner.ID] = winner.Provider
		r.federated[federatedKey{winner.Provider, winner.Subject}] = winner
		return domain.ErrDuplicateAccount
	}
	key := federatedKey{acct.Provider, acct.Subject}
	if _, ok := r.federated[key]; ok {
		return domain.ErrDuplicateAccount
	}
	if _, ok := r.registry[acct.ID]; ok {
		return domain.ErrDuplicateAccount
	}
	r.creates++
	r.registry[acct.ID] = acct.Provider
	clone := *acct
	r.federated[key] = &clone
	return nil
}

func (r *stubAccountRepo) UpdateFederatedLogin(_ context.Context, acct *domain.FederatedAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := federatedKey{acct.Provider, acct.Subject}
	if _, ok := r.federated[key]; !ok {
		return domain.ErrAccountNotFound
	}
	clone := *acct
	r.federated[key] = &clone
	return nil
}

func (r *stubAccountRepo) KindOf(_ context.Context, id uuid.UUID) (domain.AccountKind, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.registry[id]
	if !ok {
		return "", domain.ErrAccountNotFound
	}
	return k, nil
}

func (r *stubAccountRepo) ExistsIn(_ context.Context, kind domain.AccountKind, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if kind == domain.KindLocal {
		for _, a := range r.local {
			if a.ID == id {
				return true, nil
			}
		}
		return false, nil
	}
	for k, a := range r.federated {
		if k.provider == kind && a.ID == id {
			return true, nil
		}
	}
	return false, nil
}

type stubVerifier struct {
	identity *domain.VerifiedIdentity
	err      error
	calls    int
}

func (v *stubVerifier) Verify(_ context.Context, _ domain.FederatedLogin) (*domain.VerifiedIdentity, error) {
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	clone := *v.identity
	return &clone, nil
}

type stubPublisher struct {
	mu     sync.Mutex
	events []domain.IdentityEvent
	err    error
}

func (p *stubPublisher) PublishIdentityEvent(_ context.Context, ev domain.IdentityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *stubPublisher) names() []domain.EventName {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventName, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name)
	}
	return out
}

var errStoreDown = errors.New("store unavailable")

func testTokenConfig() TokenConfig {
	return TokenConfig{
		Secret:   "0123456789abcdef0123456789abcdef",
		Issuer:   "timesheet-api",
		Audience: "timesheet-web",
		Validity: time.Hour,
	}
}

func fastHasher() *PasswordHasher {
	return &PasswordHasher{cost: bcrypt.MinCost}
}
