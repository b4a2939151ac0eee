package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/collabhub/timesheet-api/internal/core/ports"
)

// ClaimsKey is the echo context key holding the verified *ports.SessionClaims.
const ClaimsKey = "session"

// Auth validates the bearer token and injects its claims into context.
// Websocket upgrades may pass the token as the access_token query parameter
// because browsers cannot set headers on them.
func Auth(tokens ports.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c)
			if err != nil {
				return err
			}

			claims, err := tokens.Validate(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	req := c.Request()
	authHeader := req.Header.Get("Authorization")
	if authHeader == "" {
		if strings.EqualFold(req.Header.Get("Upgrade"), "websocket") {
			if t := c.QueryParam("access_token"); t != "" {
				return t, nil
			}
		}
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// Claims returns the session claims injected by Auth.
func Claims(c echo.Context) (*ports.SessionClaims, error) {
	claims, ok := c.Get(ClaimsKey).(*ports.SessionClaims)
	if !ok || claims == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return claims, nil
}
