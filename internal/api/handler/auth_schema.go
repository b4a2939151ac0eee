package handler

import "time"

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// googleLoginRequest carries the ID token issued by Google Identity Services.
// The profile fields are only read when the server trusts client input.
type googleLoginRequest struct {
	ClientID   string `json:"client_id"  validate:"required,max=255"`
	Credential string `json:"credential" validate:"required,max=2048"`
	SelectBy   string `json:"select_by"  validate:"max=50"`
	Email      string `json:"email"      validate:"omitempty,email"`
	Name       string `json:"name"       validate:"max=255"`
	Picture    string `json:"picture"    validate:"omitempty,url,max=2048"`
	Sub        string `json:"sub"        validate:"max=255"`
}

// githubLoginRequest carries the OAuth authorization code returned to the
// frontend by GitHub.
type githubLoginRequest struct {
	ClientID string `json:"client_id" validate:"required,max=255"`
	Code     string `json:"code"      validate:"required,max=255"`
	SelectBy string `json:"select_by" validate:"max=50"`
	Email    string `json:"email"     validate:"omitempty,email"`
	Name     string `json:"name"      validate:"max=255"`
	Picture  string `json:"picture"   validate:"omitempty,url,max=2048"`
	Sub      string `json:"sub"       validate:"max=255"`
}

type registerResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type meResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	Exists    bool      `json:"exists"`
}
