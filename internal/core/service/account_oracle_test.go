package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/collabhub/timesheet-api/internal/core/domain"
	"github.com/collabhub/timesheet-api/internal/core/ports"
)

func TestAccountOracle_EveryKindExists(t *testing.T) {
	f := newIdentityFixture()
	ctx := context.Background()

	local, err := f.svc.Register(ctx, ports.RegisterInput{Email: "a@x.com", Password: "Abc12345!"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	google, err := f.svc.FederatedLogin(ctx, googleLogin())
	if err != nil {
		t.Fatalf("google login failed: %v", err)
	}
	github, err := f.svc.FederatedLogin(ctx, domain.FederatedLogin{Provider: domain.KindGitHub, Credential: "code"})
	if err != nil {
		t.Fatalf("github login failed: %v", err)
	}

	oracle := NewAccountOracle(f.repo)
	for _, res := range []*ports.AuthResult{local, google, github} {
		ok, err := oracle.Exists(ctx, res.Account.AccountID())
		if err != nil || !ok {
			t.Fatalf("%s account should exist: ok=%v err=%v", res.Account.Kind(), ok, err)
		}
	}
}

func TestAccountOracle_UnknownAndNil(t *testing.T) {
	oracle := NewAccountOracle(newStubAccountRepo())

	for _, id := range []uuid.UUID{uuid.New(), uuid.Nil} {
		ok, err := oracle.Exists(context.Background(), id)
		if err != nil || ok {
			t.Fatalf("expected %s to be unknown, got ok=%v err=%v", id, ok, err)
		}
	}
}

func TestAccountOracle_InactiveStillExists(t *testing.T) {
	repo := newStubAccountRepo()
	acct := &domain.LocalAccount{ID: uuid.New(), Email: "a@x.com", Active: false}
	if err := repo.CreateLocal(context.Background(), acct); err != nil {
		t.Fatalf("create: %v", err)
	}

	ok, err := NewAccountOracle(repo).Exists(context.Background(), acct.ID)
	if err != nil || !ok {
		t.Fatalf("inactive account should exist: ok=%v err=%v", ok, err)
	}
}

func TestAccountOracle_FallsBackWithoutRegistryEntry(t *testing.T) {
	repo := newStubAccountRepo()
	acct := &domain.FederatedAccount{ID: uuid.New(), Provider: domain.KindGitHub, Subject: "7", LastLoginAt: time.Now()}
	repo.federated[federatedKey{domain.KindGitHub, "7"}] = acct

	ok, err := NewAccountOracle(repo).Exists(context.Background(), acct.ID)
	if err != nil || !ok {
		t.Fatalf("expected fallback probe to find account: ok=%v err=%v", ok, err)
	}
}

type failingKindRepo struct {
	*stubAccountRepo
}

func (failingKindRepo) KindOf(context.Context, uuid.UUID) (domain.AccountKind, error) {
	return "", errStoreDown
}

func TestAccountOracle_StoreFailure(t *testing.T) {
	_, err := NewAccountOracle(failingKindRepo{newStubAccountRepo()}).Exists(context.Background(), uuid.New())
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
}
