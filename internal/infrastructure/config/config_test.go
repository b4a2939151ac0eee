package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func baseEnv() map[string]string {
	return map[string]string{
		"JWT_SECRET":   strings.Repeat("s", 32),
		"JWT_ISSUER":   "timesheet-api",
		"JWT_AUDIENCE": "timesheet-web",
		"JWT_VALIDITY": "1h",
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(baseEnv()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" || cfg.Env != "development" {
		t.Errorf("unexpected defaults: port=%q env=%q", cfg.Port, cfg.Env)
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.Requests != 10 || cfg.RateLimit.Window != time.Minute {
		t.Errorf("unexpected rate limit defaults: %+v", cfg.RateLimit)
	}
	if cfg.Events.PublishTimeout != 2*time.Second {
		t.Errorf("unexpected publish timeout: %s", cfg.Events.PublishTimeout)
	}
	if mc := cfg.MongoConnection(); mc.MaxPoolSize != 100 {
		t.Errorf("expected mongo pool size 100, got %d", mc.MaxPoolSize)
	}
	if nets := cfg.HTTP.TrustedProxyNets(); len(nets) != 0 {
		t.Errorf("expected no trusted proxies, got %v", nets)
	}

	tc := cfg.TokenConfig()
	if tc.Issuer != "timesheet-api" || tc.Audience != "timesheet-web" || tc.Validity != time.Hour {
		t.Errorf("unexpected token config: %+v", tc)
	}
}

func TestLoadFrom_Rejects(t *testing.T) {
	cases := map[string]struct {
		set  map[string]string
		drop string
		want string
	}{
		"short secret":        {set: map[string]string{"JWT_SECRET": "short"}, want: "JWT_SECRET"},
		"missing issuer":      {drop: "JWT_ISSUER", want: "JWT_ISSUER"},
		"missing audience":    {drop: "JWT_AUDIENCE", want: "JWT_AUDIENCE"},
		"missing validity":    {drop: "JWT_VALIDITY", want: "JWT_VALIDITY"},
		"zero validity":       {set: map[string]string{"JWT_VALIDITY": "0s"}, want: "JWT_VALIDITY"},
		"trusted in prod":     {set: map[string]string{"ENV": "production", "IDENTITY_TRUSTED_INPUT": "true"}, want: "IDENTITY_TRUSTED_INPUT"},
		"half github config":  {set: map[string]string{"GITHUB_CLIENT_ID": "abc"}, want: "GITHUB_CLIENT_SECRET"},
		"bad rate limit":      {set: map[string]string{"RATE_LIMIT_REQUESTS": "0"}, want: "RATE_LIMIT_REQUESTS"},
		"bad trusted proxy":   {set: map[string]string{"HTTP_TRUSTED_PROXIES": "10.0.0.1"}, want: "HTTP_TRUSTED_PROXIES"},
		"unparsable duration": {set: map[string]string{"JWT_VALIDITY": "soon"}, want: "invalid duration"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			env := baseEnv()
			delete(env, tc.drop)
			for k, v := range tc.set {
				env[k] = v
			}

			_, err := LoadFrom(context.Background(), envconfig.MapLookuper(env))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadFrom_TrustedOutsideProduction(t *testing.T) {
	env := baseEnv()
	env["IDENTITY_TRUSTED_INPUT"] = "true"

	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(env))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Identity.TrustedInput || cfg.IsProduction() {
		t.Errorf("expected trusted development config, got %+v", cfg.Identity)
	}
}

func TestLoadFrom_AllowedOrigins(t *testing.T) {
	env := baseEnv()
	env["LIVE_ALLOWED_ORIGINS"] = "app.example.com,*.example.org"

	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(env))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.HTTP.AllowedOrigins) != 2 || cfg.HTTP.AllowedOrigins[1] != "*.example.org" {
		t.Errorf("unexpected origins: %v", cfg.HTTP.AllowedOrigins)
	}
}

func TestLoadFrom_TrustedProxies(t *testing.T) {
	env := baseEnv()
	env["HTTP_TRUSTED_PROXIES"] = "10.0.0.0/8,192.168.1.0/24"

	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(env))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nets := cfg.HTTP.TrustedProxyNets()
	if len(nets) != 2 || nets[1].String() != "192.168.1.0/24" {
		t.Errorf("unexpected proxies: %v", nets)
	}
}
