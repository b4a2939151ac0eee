package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/collabhub/timesheet-api/internal/core/domain"
)

type fakeGitHub struct {
	user   githubUser
	emails []githubEmail
	// userStatus overrides the /user response status when set.
	userStatus int
}

func (g *fakeGitHub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("code") != "good-code" || r.PostForm.Get("client_secret") != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"bad_verification_code"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"gho_test","token_type":"bearer","scope":"read:user,user:email"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gho_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if g.userStatus != 0 {
			w.WriteHeader(g.userStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(g.user)
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gho_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(g.emails)
	})
	return mux
}

func newTestGitHubVerifier(t *testing.T, fake *fakeGitHub) *GitHubVerifier {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	v := NewGitHubVerifier("gh-client", "secret", srv.Client())
	v.oauth.Endpoint = oauth2.Endpoint{
		TokenURL:  srv.URL + "/login/oauth/access_token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	v.apiURL = srv.URL
	return v
}

func githubLogin(code string) domain.FederatedLogin {
	return domain.FederatedLogin{
		Provider:       domain.KindGitHub,
		ClientID:       "gh-client",
		Credential:     code,
		ClaimedSubject: "1",
		ClaimedEmail:   "spoofed@example.com",
	}
}

func TestGitHubVerifier_PublicEmail(t *testing.T) {
	v := newTestGitHubVerifier(t, &fakeGitHub{
		user: githubUser{ID: 583231, Login: "octocat", Name: "The Octocat", Email: "octocat@github.com", AvatarURL: "https://avatars/octo"},
	})

	id, err := v.Verify(context.Background(), githubLogin("good-code"))
	require.NoError(t, err)
	assert.Equal(t, "583231", id.Subject)
	assert.Equal(t, "octocat@github.com", id.Email)
	assert.Equal(t, "The Octocat", id.Name)
	assert.Equal(t, "octocat", id.Username)
	assert.Equal(t, "https://avatars/octo", id.Picture)
}

func TestGitHubVerifier_PrivateEmailUsesPrimaryVerified(t *testing.T) {
	v := newTestGitHubVerifier(t, &fakeGitHub{
		user: githubUser{ID: 7, Login: "ana"},
		emails: []githubEmail{
			{Email: "old@example.com", Primary: false, Verified: true},
			{Email: "ana@example.com", Primary: true, Verified: true},
		},
	})

	id, err := v.Verify(context.Background(), githubLogin("good-code"))
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", id.Email)
	assert.Equal(t, "ana", id.Name, "login is used when the profile has no name")
}

func TestGitHubVerifier_Rejects(t *testing.T) {
	cases := map[string]struct {
		fake *fakeGitHub
		code string
	}{
		"empty code":        {&fakeGitHub{user: githubUser{ID: 1, Email: "a@x.com"}}, ""},
		"bad code":          {&fakeGitHub{user: githubUser{ID: 1, Email: "a@x.com"}}, "stolen-code"},
		"profile error":     {&fakeGitHub{userStatus: http.StatusBadGateway}, "good-code"},
		"no verified email": {&fakeGitHub{user: githubUser{ID: 1}, emails: []githubEmail{{Email: "a@x.com", Primary: true}}}, "good-code"},
	}
	for name, tc := range cases {
		v := newTestGitHubVerifier(t, tc.fake)
		id, err := v.Verify(context.Background(), githubLogin(tc.code))
		assert.Nil(t, id, name)
		assert.True(t, errors.Is(err, domain.ErrUnverifiedIdentity), "%s: got %v", name, err)
	}
}

func TestTrustedVerifier(t *testing.T) {
	v := NewTrustedVerifier(domain.KindGoogle)

	id, err := v.Verify(context.Background(), domain.FederatedLogin{
		Credential: "anything", ClaimedSubject: "s-1", ClaimedEmail: "a@x.com", ClaimedName: "Ana",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.KindGoogle, id.Provider)
	assert.Equal(t, "s-1", id.Subject)

	_, err = v.Verify(context.Background(), domain.FederatedLogin{Credential: "anything", ClaimedEmail: "a@x.com"})
	assert.ErrorIs(t, err, domain.ErrUnverifiedIdentity)
}
