package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/collabhub/timesheet-api/internal/api/middleware"
)

// pathID parses the uuid path parameter name, failing fast with 400.
func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// ownerQuery returns the owner_account_id query parameter, defaulting to the
// caller's own account.
func ownerQuery(c echo.Context) (uuid.UUID, error) {
	if raw := c.QueryParam("owner_account_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid owner_account_id")
		}
		return id, nil
	}
	claims, err := middleware.Claims(c)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.Subject, nil
}

// bindAndValidate decodes the body into req and runs the struct validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
