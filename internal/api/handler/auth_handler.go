package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/collabhub/timesheet-api/internal/api/metrics"
	"github.com/collabhub/timesheet-api/internal/api/middleware"
	"github.com/collabhub/timesheet-api/internal/core/domain"
	"github.com/collabhub/timesheet-api/internal/core/policy"
	"github.com/collabhub/timesheet-api/internal/core/ports"
)

// AuthHandler exposes registration, password login, federated login and the
// caller's session.
type AuthHandler struct {
	identity ports.IdentityService
	oracle   ports.AccountOracle
}

func NewAuthHandler(identity ports.IdentityService, oracle ports.AccountOracle) *AuthHandler {
	return &AuthHandler{identity: identity, oracle: oracle}
}

// Register creates a local account.
//
// @Summary      Register a local account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  map[string]any
// @Failure      409   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /v1/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	res, err := h.identity.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	})
	record(domain.KindLocal, res, err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, registerResponse{
		ID:      res.Account.AccountID().String(),
		Message: "User registered successfully.",
	})
}

// Login authenticates a local account and returns a session token.
//
// @Summary      Login with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /v1/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	res, err := h.identity.Login(c.Request().Context(), req.Email, req.Password)
	record(domain.KindLocal, res, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokenResponse{Token: res.Token})
}

// Google signs in with a Google ID token, creating the account on first use.
//
// @Summary      Login with Google
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      googleLoginRequest  true  "Google credential"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /v1/auth/google [post]
func (h *AuthHandler) Google(c echo.Context) error {
	var req googleLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.federated(c, domain.FederatedLogin{
		Provider:       domain.KindGoogle,
		ClientID:       req.ClientID,
		Credential:     req.Credential,
		SelectBy:       req.SelectBy,
		ClaimedSubject: req.Sub,
		ClaimedEmail:   req.Email,
		ClaimedName:    req.Name,
		ClaimedPicture: req.Picture,
	})
}

// GitHub signs in with a GitHub authorization code, creating the account on
// first use.
//
// @Summary      Login with GitHub
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      githubLoginRequest  true  "GitHub authorization code"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /v1/auth/github [post]
func (h *AuthHandler) GitHub(c echo.Context) error {
	var req githubLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.federated(c, domain.FederatedLogin{
		Provider:       domain.KindGitHub,
		ClientID:       req.ClientID,
		Credential:     req.Code,
		SelectBy:       req.SelectBy,
		ClaimedSubject: req.Sub,
		ClaimedEmail:   req.Email,
		ClaimedName:    req.Name,
		ClaimedPicture: req.Picture,
	})
}

func (h *AuthHandler) federated(c echo.Context, login domain.FederatedLogin) error {
	res, err := h.identity.FederatedLogin(c.Request().Context(), login)
	record(login.Provider, res, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokenResponse{Token: res.Token})
}

// Me returns the caller's session and whether its account still exists.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meResponse
// @Failure      401  {object}  map[string]string
// @Router       /v1/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	claims, err := middleware.Claims(c)
	if err != nil {
		return err
	}

	exists, err := h.oracle.Exists(c.Request().Context(), claims.Subject)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, meResponse{
		ID:        claims.Subject.String(),
		Email:     claims.Email,
		Name:      claims.Name,
		ExpiresAt: time.Unix(claims.ExpiresAt, 0).UTC(),
		Exists:    exists,
	})
}

// record updates the identity counters for one attempt.
func record(provider domain.AccountKind, res *ports.AuthResult, err error) {
	metrics.AuthAttemptsTotal.WithLabelValues(string(provider), outcome(err)).Inc()
	if err == nil && res != nil && res.Created {
		metrics.AccountsCreatedTotal.WithLabelValues(string(provider)).Inc()
	}
}

func outcome(err error) string {
	var ve *policy.ValidationError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &ve):
		return "invalid"
	case errors.Is(err, domain.ErrEmailTaken):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnverifiedIdentity):
		return "rejected"
	case errors.Is(err, domain.ErrAccountDisabled):
		return "disabled"
	default:
		return "error"
	}
}
