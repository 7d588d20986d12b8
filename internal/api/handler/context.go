package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agileflow/user-service/internal/core/domain"
)

// currentIdentity returns the identity attached by the authentication guard.
// Its absence means the route was registered without the guard pipeline;
// reject with 401 rather than act on behalf of nobody.
func currentIdentity(c echo.Context) (domain.RequestIdentity, error) {
	identity, ok := domain.IdentityFromContext(c.Request().Context())
	if !ok || identity.UserID == "" {
		return domain.RequestIdentity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return identity, nil
}
