package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/agileflow/user-service/internal/core/domain"
)

func withIdentity(c echo.Context, roles ...domain.Role) {
	req := c.Request()
	c.SetRequest(req.WithContext(domain.WithIdentity(req.Context(), domain.RequestIdentity{
		UserID: "user-1",
		Roles:  domain.NewRoleSet(roles...),
	})))
}

func runAuthorize(t *testing.T, policy RoutePolicy, roles ...domain.Role) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if roles != nil {
		withIdentity(c, roles...)
	}

	called := false
	handler := Pipeline(policy, Authorize())(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called
}

func TestAuthorize_Allows(t *testing.T) {
	rec, called := runAuthorize(t, Roles(domain.RoleAdmin), domain.RoleUser, domain.RoleAdmin)
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthorize_Forbids(t *testing.T) {
	rec, called := runAuthorize(t, Roles(domain.RoleAdmin), domain.RoleUser)
	if called {
		t.Fatalf("should not reach next handler")
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAuthorize_AnyRoleWhenNoneRequired(t *testing.T) {
	rec, called := runAuthorize(t, Authenticated(), domain.RoleUser)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected authenticated route to admit any role, got %d", rec.Code)
	}
}

func TestAuthorize_NoIdentity(t *testing.T) {
	rec, called := runAuthorize(t, Roles(domain.RoleUser))
	if called {
		t.Fatalf("should not reach next handler")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthorize_PublicIsNoop(t *testing.T) {
	rec, called := runAuthorize(t, Public())
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected public route to pass, got %d", rec.Code)
	}
}
