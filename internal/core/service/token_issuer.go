package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/collabhub/timesheet-api/internal/core/domain"
	"github.com/collabhub/timesheet-api/internal/core/ports"
)

// ErrInvalidToken is returned by Validate for any token that must not be trusted.
var ErrInvalidToken = errors.New("invalid session token")

// TokenConfig holds the deployment settings of the session token.
type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience string
	Validity time.Duration
}

type sessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// JWTIssuer signs session tokens with HMAC-SHA256.
type JWTIssuer struct {
	cfg TokenConfig
	now func() time.Time
}

func NewJWTIssuer(cfg TokenConfig) *JWTIssuer {
	return &JWTIssuer{cfg: cfg, now: time.Now}
}

// Issue mints a token for acct valid for the configured window.
func (i *JWTIssuer) Issue(acct domain.Account) (string, error) {
	now := i.now()
	claims := sessionClaims{
		Email: acct.ContactEmail(),
		Name:  acct.DisplayName(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.AccountID().String(),
			ID:        uuid.NewString(),
			Issuer:    i.cfg.Issuer,
			Audience:  jwt.ClaimStrings{i.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.Validity)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(i.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Validate checks signature, algorithm, issuer, audience and expiry.
func (i *JWTIssuer) Validate(token string) (*ports.SessionClaims, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return []byte(i.cfg.Secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.cfg.Issuer),
		jwt.WithAudience(i.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not an account id", ErrInvalidToken)
	}

	return &ports.SessionClaims{
		Subject:   sub,
		Email:     claims.Email,
		Name:      claims.Name,
		TokenID:   claims.ID,
		Issuer:    claims.Issuer,
		ExpiresAt: claims.ExpiresAt.Unix(),
	}, nil
}
