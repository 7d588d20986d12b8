package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agileflow/user-service/internal/api/metrics"
	"github.com/agileflow/user-service/internal/core/domain"
)

// Authorize checks the identity left by Authenticate against the route's
// required roles. It must run after Authenticate in the pipeline.
func Authorize() Guard {
	return func(c echo.Context, policy RoutePolicy) error {
		if policy.Public {
			return nil
		}

		identity, ok := domain.IdentityFromContext(c.Request().Context())
		if !ok {
			metrics.GuardRejectionsTotal.WithLabelValues("role", "no_identity").Inc()
			return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication").SetInternal(domain.ErrUnauthenticated)
		}

		if policy.RequiredRoles == nil || policy.RequiredRoles.Cardinality() == 0 {
			return nil
		}
		if !identity.HasAnyRole(policy.RequiredRoles) {
			metrics.GuardRejectionsTotal.WithLabelValues("role", "insufficient_role").Inc()
			return echo.NewHTTPError(http.StatusForbidden, "access forbidden").SetInternal(domain.ErrForbidden)
		}
		return nil
	}
}
