package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agileflow/user-service/internal/core/domain"
	"github.com/agileflow/user-service/internal/core/ports"
	"github.com/agileflow/user-service/internal/core/service"
)

const (
	aliceID = "65f1c0ffee00000000000001"
	bobID   = "65f1c0ffee00000000000002"
)

type fakeAuth struct{}

func (fakeAuth) Login(_ context.Context, email, password string) (domain.TokenPair, error) {
	if email == "a@b.com" && password == "Secret1!" {
		return domain.TokenPair{AccessToken: "a", RefreshToken: "r"}, nil
	}
	return domain.TokenPair{}, domain.ErrInvalidCredentials
}

func (fakeAuth) Refresh(context.Context, string) (domain.TokenPair, error) {
	return domain.TokenPair{}, domain.ErrTokenExpired
}

// fakeUsers records which user id each call targeted.
type fakeUsers struct {
	last string
}

func (f *fakeUsers) Create(_ context.Context, in ports.CreateUserInput) (*domain.User, error) {
	if in.Email == "taken@b.com" {
		return nil, domain.ErrEmailTaken
	}
	return &domain.User{ID: bobID, Email: in.Email}, nil
}

func (f *fakeUsers) List(context.Context) ([]*domain.User, error) {
	return []*domain.User{{ID: aliceID}}, nil
}

func (f *fakeUsers) Get(_ context.Context, id string) (*domain.User, error) {
	f.last = id
	if id != aliceID && id != bobID {
		return nil, domain.ErrUserNotFound
	}
	return &domain.User{ID: id}, nil
}

func (f *fakeUsers) Update(_ context.Context, id string, _ ports.UserPatch) (*domain.User, error) {
	f.last = id
	return &domain.User{ID: id}, nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.last = id
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, current, _ string) error {
	f.last = id
	if current != "Secret1!" {
		return domain.ErrInvalidCurrentPassword
	}
	return nil
}

type routerFixture struct {
	e      http.Handler
	tokens *service.TokenService
	users  *fakeUsers
}

func newRouterFixture(t *testing.T, reg *prometheus.Registry) *routerFixture {
	t.Helper()
	tokens, err := service.NewTokenService(service.TokenConfig{
		AccessSecret: "router-secret",
		AccessTTL:    time.Minute,
		RefreshTTL:   time.Hour,
	})
	require.NoError(t, err)

	users := &fakeUsers{}
	deps := Dependencies{
		Logger: zerolog.Nop(),
		Auth:   fakeAuth{},
		Users:  users,
		Tokens: tokens,
	}
	if reg != nil {
		deps.Registerer = reg
		deps.Gatherer = reg
	}
	return &routerFixture{e: NewRouter(deps), tokens: tokens, users: users}
}

func (f *routerFixture) bearer(t *testing.T, userID string, roles ...domain.Role) string {
	t.Helper()
	pair, err := f.tokens.Issue(userID, domain.NewRoleSet(roles...))
	require.NoError(t, err)
	return "Bearer " + pair.AccessToken
}

func (f *routerFixture) do(method, path, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error
}

func TestRouter_PublicRoutes(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.do(http.MethodPost, "/auth/login", "", `{"email":"a@b.com","password":"Secret1!"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/auth/login", "", `{"email":"a@b.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", errorMessage(t, rec))

	rec = f.do(http.MethodPost, "/auth/refresh", "", `{"refreshToken":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/users", "", `{"email":"new@b.com","firstName":"N","lastName":"U","password":"Secret1!"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/users/"+bobID, rec.Header().Get("Location"))

	rec = f.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	f := newRouterFixture(t, nil)

	cases := []struct {
		method, path, auth, msg string
	}{
		{http.MethodGet, "/users", "", "missing authorization header"},
		{http.MethodGet, "/users/me", "Basic abc", "invalid authorization header"},
		{http.MethodGet, "/users/" + aliceID, "Bearer nope", "invalid token"},
		{http.MethodDelete, "/users/" + aliceID, "", "missing authorization header"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := f.do(tc.method, tc.path, tc.auth, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tc.msg, errorMessage(t, rec))
		})
	}
}

func TestRouter_RoleRequirements(t *testing.T) {
	f := newRouterFixture(t, nil)
	user := f.bearer(t, aliceID, domain.RoleUser)
	admin := f.bearer(t, aliceID, domain.RoleUser, domain.RoleAdmin)

	rec := f.do(http.MethodGet, "/users", user, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodDelete, "/users/"+bobID, user, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "access forbidden", errorMessage(t, rec))

	rec = f.do(http.MethodDelete, "/users/"+bobID, admin, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, bobID, f.users.last)
}

func TestRouter_MeRoutesTargetCaller(t *testing.T) {
	f := newRouterFixture(t, nil)
	user := f.bearer(t, aliceID, domain.RoleUser)

	rec := f.do(http.MethodGet, "/users/me", user, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, aliceID, f.users.last)

	rec = f.do(http.MethodPatch, "/users/me", user, `{"firstName":"A"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodDelete, "/users/me", user, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodPut, "/users/me/password", user, `{"currentPassword":"Secret1!","newPassword":"Another2@"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodPut, "/users/me/password", user, `{"currentPassword":"bad","newPassword":"Another2@"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_ErrorMapping(t *testing.T) {
	f := newRouterFixture(t, nil)
	user := f.bearer(t, aliceID, domain.RoleUser)

	rec := f.do(http.MethodGet, "/users/not-hex", user, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "id must be a valid id")

	rec = f.do(http.MethodGet, "/users/65f1c0ffee000000000000ff", user, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "user not found", errorMessage(t, rec))

	rec = f.do(http.MethodPost, "/users", "", `{"email":"taken@b.com","firstName":"N","lastName":"U","password":"Secret1!"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodPost, "/users", "", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid payload", errorMessage(t, rec))

	rec = f.do(http.MethodGet, "/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_RefreshTokenIsNotABearer(t *testing.T) {
	f := newRouterFixture(t, nil)
	pair, err := f.tokens.Issue(aliceID, domain.NewRoleSet(domain.RoleAdmin))
	require.NoError(t, err)

	rec := f.do(http.MethodGet, "/users", "Bearer "+pair.RefreshToken, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newRouterFixture(t, reg)

	f.do(http.MethodGet, "/health", "", "")

	rec := f.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRouter_MetricsRecordResolvedStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newRouterFixture(t, reg)

	rec := f.do(http.MethodPost, "/auth/login", "", `{"email":"a@b.com","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	families, err := reg.Gather()
	require.NoError(t, err)

	codes := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "echo_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["url"] == "/auth/login" {
				codes[labels["code"]] += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, float64(1), codes["401"])
	assert.NotContains(t, codes, "500")
}

func TestRouter_NoMetricsEndpointWithoutRegisterer(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
