package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/collabhub/timesheet-api/internal/api/middleware"
	"github.com/collabhub/timesheet-api/internal/core/domain"
	"github.com/collabhub/timesheet-api/internal/core/policy"
	"github.com/collabhub/timesheet-api/internal/core/ports"
	"github.com/collabhub/timesheet-api/internal/core/service"
	"github.com/collabhub/timesheet-api/internal/infrastructure/http/handlers"
)

type stubIdentity struct {
	loginErr    error
	registerErr error
}

func (s stubIdentity) Register(context.Context, ports.RegisterInput) (*ports.AuthResult, error) {
	return nil, s.registerErr
}

func (s stubIdentity) Login(_ context.Context, email, _ string) (*ports.AuthResult, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &ports.AuthResult{Account: &domain.LocalAccount{ID: uuid.New(), Email: email}, Token: "tok"}, nil
}

func (s stubIdentity) FederatedLogin(context.Context, domain.FederatedLogin) (*ports.AuthResult, error) {
	return nil, domain.ErrUnverifiedIdentity
}

type stubOracle struct{}

func (stubOracle) Exists(context.Context, uuid.UUID) (bool, error) { return true, nil }

type stubResources struct {
	ports.ResourceService
	err error
}

func (s stubResources) GetProject(context.Context, uuid.UUID) (*domain.Project, error) {
	return nil, s.err
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (bool, time.Duration, error) {
	return false, 30 * time.Second, nil
}

// countingLimiter allows limit hits per key.
type countingLimiter struct {
	limit int
	hits  map[string]int
}

func (l *countingLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l.hits[key]++
	return l.hits[key] <= l.limit, time.Minute, nil
}

type pingOK struct{}

func (pingOK) Ping(context.Context) error { return nil }

func testIssuer() *service.JWTIssuer {
	return service.NewJWTIssuer(service.TokenConfig{
		Secret:   strings.Repeat("r", 32),
		Issuer:   "timesheet-api",
		Audience: "timesheet-web",
		Validity: time.Hour,
	})
}

func newTestRouter(identity stubIdentity, resources stubResources, limiter middleware.Limiter) *echo.Echo {
	return NewRouter(Deps{
		Identity:   identity,
		Oracle:     stubOracle{},
		Tokens:     testIssuer(),
		Resources:  resources,
		Limiter:    limiter,
		Health:     map[string]handlers.Pinger{"redis": pingOK{}},
		Registerer: prometheus.NewRegistry(),
		Log:        zerolog.Nop(),
	})
}

func do(e *echo.Echo, method, target, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestRouter_Health(t *testing.T) {
	e := newTestRouter(stubIdentity{}, stubResources{}, nil)

	if rec := do(e, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/health/ready", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_ErrorMapping(t *testing.T) {
	cases := map[string]struct {
		identity stubIdentity
		path     string
		body     string
		status   int
		message  string
	}{
		"bad password": {
			identity: stubIdentity{loginErr: domain.ErrInvalidCredentials},
			path:     "/v1/auth/login",
			body:     `{"email":"a@b.co","password":"x"}`,
			status:   http.StatusUnauthorized,
			message:  "invalid email or password",
		},
		"disabled": {
			identity: stubIdentity{loginErr: domain.ErrAccountDisabled},
			path:     "/v1/auth/login",
			body:     `{"email":"a@b.co","password":"x"}`,
			status:   http.StatusForbidden,
			message:  "account disabled",
		},
		"email taken": {
			identity: stubIdentity{registerErr: domain.ErrEmailTaken},
			path:     "/v1/auth/register",
			body:     `{"email":"a@b.co","password":"x"}`,
			status:   http.StatusConflict,
			message:  "email already registered",
		},
		"unverified federated": {
			path:    "/v1/auth/google",
			body:    `{"client_id":"cid","credential":"forged"}`,
			status:  http.StatusUnauthorized,
			message: "invalid credentials",
		},
		"store down": {
			identity: stubIdentity{loginErr: errors.New("mongo: server selection timeout")},
			path:     "/v1/auth/login",
			body:     `{"email":"a@b.co","password":"x"}`,
			status:   http.StatusInternalServerError,
			message:  "internal server error",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			e := newTestRouter(tc.identity, stubResources{}, nil)
			rec := do(e, http.MethodPost, tc.path, tc.body, "")
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d (%s)", tc.status, rec.Code, rec.Body.String())
			}
			if got := decode(t, rec).Error; got != tc.message {
				t.Fatalf("expected %q, got %q", tc.message, got)
			}
		})
	}
}

func TestRouter_ValidationErrorListsViolations(t *testing.T) {
	verr := policy.CheckRegistration("not-an-email", "short", "")
	e := newTestRouter(stubIdentity{registerErr: verr}, stubResources{}, nil)

	rec := do(e, http.MethodPost, "/v1/auth/register", `{"email":"not-an-email","password":"short"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := decode(t, rec)
	if len(body.Violations) < 2 {
		t.Fatalf("expected every violated rule, got %+v", body.Violations)
	}
}

func TestRouter_SecuredRoutesRequireToken(t *testing.T) {
	e := newTestRouter(stubIdentity{}, stubResources{err: domain.ErrProjectNotFound}, nil)
	target := "/v1/projects/" + uuid.NewString()

	if rec := do(e, http.MethodGet, target, "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	token, err := testIssuer().Issue(&domain.LocalAccount{ID: uuid.New(), Email: "a@b.co"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec := do(e, http.MethodGet, target, "", token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if got := decode(t, rec).Error; got != "project not found" {
		t.Fatalf("unexpected message %q", got)
	}

	rec = do(e, http.MethodGet, "/v1/me", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /v1/me, got %d", rec.Code)
	}
}

func TestRouter_AuthRoutesAreRateLimited(t *testing.T) {
	e := newTestRouter(stubIdentity{}, stubResources{}, denyAll{})

	rec := do(e, http.MethodPost, "/v1/auth/login", `{"email":"a@b.co","password":"x"}`, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "30" {
		t.Fatalf("expected Retry-After 30, got %q", rec.Header().Get("Retry-After"))
	}

	// Health is not throttled.
	if rec := do(e, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_RateLimitIgnoresSpoofedForwardingHeaders(t *testing.T) {
	limiter := &countingLimiter{limit: 10, hits: map[string]int{}}
	e := newTestRouter(stubIdentity{}, stubResources{}, limiter)

	throttled := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{"email":"a@b.co","password":"x"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set(echo.HeaderXForwardedFor, fmt.Sprintf("10.0.0.%d", i))
		req.Header.Set(echo.HeaderXRealIP, fmt.Sprintf("10.0.1.%d", i))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			throttled++
		}
	}

	if throttled != 40 {
		t.Fatalf("expected 40 throttled requests, got %d", throttled)
	}
	if len(limiter.hits) != 1 || limiter.hits["192.0.2.1"] != 50 {
		t.Fatalf("expected every hit keyed by the peer address, got %v", limiter.hits)
	}
}

func TestRouter_TrustedProxyForwardsClientIP(t *testing.T) {
	_, proxies, _ := net.ParseCIDR("192.0.2.0/24")
	limiter := &countingLimiter{limit: 10, hits: map[string]int{}}
	e := NewRouter(Deps{
		Identity:       stubIdentity{},
		Oracle:         stubOracle{},
		Tokens:         testIssuer(),
		Resources:      stubResources{},
		Limiter:        limiter,
		TrustedProxies: []*net.IPNet{proxies},
		Registerer:     prometheus.NewRegistry(),
		Log:            zerolog.Nop(),
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{"email":"a@b.co","password":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderXForwardedFor, "203.0.113.7")
	e.ServeHTTP(httptest.NewRecorder(), req)

	if limiter.hits["203.0.113.7"] != 1 {
		t.Fatalf("expected the forwarded client to be keyed, got %v", limiter.hits)
	}
}
