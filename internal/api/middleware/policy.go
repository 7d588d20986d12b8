package middleware

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/labstack/echo/v4"

	"github.com/agileflow/user-service/internal/core/domain"
)

// RoutePolicy is the static access rule of one route, fixed at registration.
// An empty RequiredRoles set means any authenticated caller is admitted.
type RoutePolicy struct {
	Public        bool
	RequiredRoles mapset.Set[domain.Role]
}

// Public admits anonymous callers.
func Public() RoutePolicy {
	return RoutePolicy{Public: true}
}

// Authenticated admits any caller with a valid access token.
func Authenticated() RoutePolicy {
	return RoutePolicy{RequiredRoles: domain.NewRoleSet()}
}

// Roles admits callers holding at least one of roles.
func Roles(roles ...domain.Role) RoutePolicy {
	return RoutePolicy{RequiredRoles: domain.NewRoleSet(roles...)}
}

// Guard inspects a request under a route's policy. A non-nil error rejects
// the request and is rendered by the HTTP error handler.
type Guard func(c echo.Context, policy RoutePolicy) error

// Pipeline evaluates guards in order for every request to the route and
// stops at the first rejection.
func Pipeline(policy RoutePolicy, guards ...Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, guard := range guards {
				if err := guard(c, policy); err != nil {
					return err
				}
			}
			return next(c)
		}
	}
}
