package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medrecords/records-api/internal/api/middleware"
	"github.com/medrecords/records-api/internal/core/domain"
)

// currentAccount returns the caller identity injected by the Auth middleware.
// A token without a known role is rejected with 401.
func currentAccount(c echo.Context) (string, domain.Role, error) {
	id, _ := c.Get(middleware.ContextAccountID).(string)
	if id == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	raw, _ := c.Get(middleware.ContextRole).(string)
	role, err := domain.ParseRole(raw)
	if err != nil {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "token carries an unknown role")
	}

	return id, role, nil
}
