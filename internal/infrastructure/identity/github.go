package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/collabhub/timesheet-api/internal/core/domain"
)

const githubAPIURL = "https://api.github.com"

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// GitHubVerifier redeems an authorization code and reads the profile GitHub
// returns for it. Nothing the caller claims about the profile is used.
type GitHubVerifier struct {
	oauth  *oauth2.Config
	apiURL string
	client *http.Client
}

func NewGitHubVerifier(clientID, clientSecret string, client *http.Client) *GitHubVerifier {
	return &GitHubVerifier{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     github.Endpoint,
			Scopes:       []string{"read:user", "user:email"},
		},
		apiURL: githubAPIURL,
		client: client,
	}
}

func (v *GitHubVerifier) Verify(ctx context.Context, login domain.FederatedLogin) (*domain.VerifiedIdentity, error) {
	if login.Credential == "" {
		return nil, reject("github: empty code")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, v.client)
	tok, err := v.oauth.Exchange(ctx, login.Credential)
	if err != nil {
		return nil, reject("github: exchange code: %v", err)
	}
	api := v.oauth.Client(ctx, tok)

	var user githubUser
	if err := v.get(ctx, api, "/user", &user); err != nil {
		return nil, reject("github: %v", err)
	}
	if user.ID == 0 {
		return nil, reject("github: profile has no id")
	}

	email := user.Email
	if email == "" {
		var emails []githubEmail
		if err := v.get(ctx, api, "/user/emails", &emails); err != nil {
			return nil, reject("github: %v", err)
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				email = e.Email
				break
			}
		}
	}
	if email == "" {
		return nil, reject("github: no verified primary email")
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}
	return &domain.VerifiedIdentity{
		Provider: domain.KindGitHub,
		Subject:  strconv.FormatInt(user.ID, 10),
		Email:    email,
		Name:     name,
		Picture:  user.AvatarURL,
		Username: user.Login,
	}, nil
}

func (v *GitHubVerifier) get(ctx context.Context, client *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.apiURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
