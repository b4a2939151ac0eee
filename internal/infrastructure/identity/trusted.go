package identity

import (
	"context"

	"github.com/collabhub/timesheet-api/internal/core/domain"
)

// TrustedVerifier accepts the profile the caller sent as-is. It exists for
// local development against mocked frontends and must never be enabled in
// production.
type TrustedVerifier struct {
	provider domain.AccountKind
}

func NewTrustedVerifier(provider domain.AccountKind) *TrustedVerifier {
	return &TrustedVerifier{provider: provider}
}

func (v *TrustedVerifier) Verify(_ context.Context, login domain.FederatedLogin) (*domain.VerifiedIdentity, error) {
	if login.Credential == "" {
		return nil, reject("%s: empty credential", v.provider)
	}
	if login.ClaimedSubject == "" || login.ClaimedEmail == "" {
		return nil, reject("%s: subject and email are required", v.provider)
	}
	return &domain.VerifiedIdentity{
		Provider: v.provider,
		Subject:  login.ClaimedSubject,
		Email:    login.ClaimedEmail,
		Name:     login.ClaimedName,
		Picture:  login.ClaimedPicture,
	}, nil
}
