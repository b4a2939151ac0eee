package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/collabhub/timesheet-api/internal/core/domain"
	"github.com/collabhub/timesheet-api/internal/core/policy"
	"github.com/collabhub/timesheet-api/internal/core/ports"
)

// IdentityService implements registration, password login and federated
// find-or-create login over the account repository.
type IdentityService struct {
	repo      ports.AccountRepository
	hasher    *PasswordHasher
	tokens    ports.TokenIssuer
	verifiers map[domain.AccountKind]ports.IdentityVerifier
	events    ports.EventPublisher
	log       zerolog.Logger
	now       func() time.Time
}

func NewIdentityService(
	repo ports.AccountRepository,
	hasher *PasswordHasher,
	tokens ports.TokenIssuer,
	verifiers map[domain.AccountKind]ports.IdentityVerifier,
	events ports.EventPublisher,
	log zerolog.Logger,
) *IdentityService {
	return &IdentityService{
		repo:      repo,
		hasher:    hasher,
		tokens:    tokens,
		verifiers: verifiers,
		events:    events,
		log:       log.With().Str("component", "identity").Logger(),
		now:       time.Now,
	}
}

func (s *IdentityService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	email := normalizeEmail(in.Email)
	if err := policy.CheckRegistration(email, in.Password, in.Username); err != nil {
		return nil, err
	}

	_, err := s.repo.FindLocalByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, domain.ErrEmailTaken
	case !errors.Is(err, domain.ErrAccountNotFound):
		return nil, fmt.Errorf("lookup local account: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	acct := &domain.LocalAccount{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Username:     strings.TrimSpace(in.Username),
		Active:       true,
		CreatedAt:    now,
		ModifiedAt:   now,
	}
	if err := s.repo.CreateLocal(ctx, acct); err != nil {
		if errors.Is(err, domain.ErrDuplicateAccount) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("create local account: %w", err)
	}

	s.log.Info().Str("account_id", acct.ID.String()).Msg("local account registered")
	return s.finish(ctx, acct, true, false)
}

func (s *IdentityService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	acct, err := s.repo.FindLocalByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup local account: %w", err)
	}

	if !s.hasher.Verify(password, acct.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if !acct.Active {
		return nil, domain.ErrAccountDisabled
	}

	at := domain.NextLoginTime(acct.LastLoginAt, s.now())
	if err := s.repo.TouchLocalLogin(ctx, acct.ID, at); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	acct.LastLoginAt = &at
	acct.ModifiedAt = at

	return s.finish(ctx, acct, false, true)
}

func (s *IdentityService) FederatedLogin(ctx context.Context, login domain.FederatedLogin) (*ports.AuthResult, error) {
	verifier, ok := s.verifiers[login.Provider]
	if !ok || !login.Provider.Federated() {
		return nil, fmt.Errorf("%w: provider %q is not enabled", domain.ErrUnverifiedIdentity, login.Provider)
	}

	id, err := verifier.Verify(ctx, login)
	if err != nil {
		s.log.Warn().Err(err).Str("provider", string(login.Provider)).Msg("federated identity rejected")
		if !errors.Is(err, domain.ErrUnverifiedIdentity) {
			err = fmt.Errorf("%w: %v", domain.ErrUnverifiedIdentity, err)
		}
		return nil, err
	}
	if id == nil || id.Subject == "" {
		return nil, fmt.Errorf("%w: empty subject", domain.ErrUnverifiedIdentity)
	}

	acct, created, err := s.resolveFederated(ctx, id, login)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, acct, created, true)
}

// resolveFederated finds the account for id or creates it. A concurrent
// first login for the same subject surfaces as a duplicate on insert, which
// is resolved by looking the winner up again.
func (s *IdentityService) resolveFederated(ctx context.Context, id *domain.VerifiedIdentity, login domain.FederatedLogin) (*domain.FederatedAccount, bool, error) {
	for attempt := 0; ; attempt++ {
		acct, err := s.repo.FindFederatedBySubject(ctx, login.Provider, id.Subject)
		switch {
		case err == nil:
			if !acct.Active {
				return nil, false, domain.ErrAccountDisabled
			}
			prev := acct.LastLoginAt
			acct.Refresh(id, login, domain.NextLoginTime(&prev, s.now()))
			if err := s.repo.UpdateFederatedLogin(ctx, acct); err != nil {
				return nil, false, fmt.Errorf("update %s account: %w", login.Provider, err)
			}
			return acct, false, nil

		case !errors.Is(err, domain.ErrAccountNotFound):
			return nil, false, fmt.Errorf("lookup %s account: %w", login.Provider, err)
		}

		now := s.now().UTC().Truncate(time.Millisecond)
		acct = &domain.FederatedAccount{
			ID:        uuid.New(),
			Provider:  login.Provider,
			Subject:   id.Subject,
			Active:    true,
			CreatedAt: now,
			SelectBy:  login.SelectBy,
		}
		acct.Refresh(id, login, now)

		err = s.repo.CreateFederated(ctx, acct)
		if err == nil {
			s.log.Info().
				Str("account_id", acct.ID.String()).
				Str("provider", string(login.Provider)).
				Msg("federated account created")
			return acct, true, nil
		}
		if !errors.Is(err, domain.ErrDuplicateAccount) || attempt > 0 {
			return nil, false, fmt.Errorf("create %s account: %w", login.Provider, err)
		}
		s.log.Debug().Str("provider", string(login.Provider)).Msg("lost first-login race, retrying lookup")
	}
}

// finish issues the session token when requested and emits the single event
// of this resolution.
func (s *IdentityService) finish(ctx context.Context, acct domain.Account, created, withToken bool) (*ports.AuthResult, error) {
	res := &ports.AuthResult{Account: acct, Created: created}

	if withToken {
		token, err := s.tokens.Issue(acct)
		if err != nil {
			return nil, err
		}
		res.Token = token
	}

	if created {
		res.Event = domain.RegisteredEvent(acct.Kind())
	} else {
		res.Event = domain.LoggedInEvent(acct.Kind())
	}
	res.NotifyErr = s.notify(ctx, res.Event, acct.ContactEmail())
	return res, nil
}

func (s *IdentityService) notify(ctx context.Context, name domain.EventName, email string) error {
	if s.events == nil {
		return nil
	}
	ev := domain.IdentityEvent{Name: name, Email: email, Timestamp: s.now().UTC()}
	// The account change is already committed; a caller hanging up must not
	// drop the event.
	if err := s.events.PublishIdentityEvent(context.WithoutCancel(ctx), ev); err != nil {
		s.log.Error().Err(err).Str("event", string(name)).Msg("identity event not delivered")
		return err
	}
	return nil
}

// Emails are matched case-insensitively.
func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
