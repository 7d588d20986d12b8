package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/agileflow/user-service/internal/api/handler"
	"github.com/agileflow/user-service/internal/api/middleware"
	"github.com/agileflow/user-service/internal/core/domain"
	"github.com/agileflow/user-service/internal/core/ports"
	"github.com/agileflow/user-service/internal/infrastructure/http/handlers"
)

// Dependencies is everything the HTTP layer needs from the composition root.
type Dependencies struct {
	Logger zerolog.Logger
	Auth   ports.AuthService
	Users  ports.UserService
	Tokens ports.TokenVerifier
	// Checks are the readiness probes, keyed by dependency name.
	Checks map[string]handlers.Check
	// Registerer receives the HTTP request metrics. Nil disables them
	// together with the /metrics endpoint.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	// Metrics wrap the request logger: the logger renders errors through the
	// HTTP error handler, so the status seen here is the one sent.
	if deps.Registerer != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem:  "http",
			Registerer: deps.Registerer,
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/metrics"
			},
		}))
	}
	e.Use(requestLogger(deps.Logger))

	guards := []middleware.Guard{
		middleware.Authenticate(deps.Tokens),
		middleware.Authorize(),
	}
	add := func(method, path string, h echo.HandlerFunc, policy middleware.RoutePolicy) {
		e.Add(method, path, h, middleware.Pipeline(policy, guards...))
	}

	authHandler := handler.NewAuthHandler(deps.Auth)
	userHandler := handler.NewUserHandler(deps.Users)

	// --- Auth routes ---
	add(http.MethodPost, "/auth/login", authHandler.Login, middleware.Public())
	add(http.MethodPost, "/auth/refresh", authHandler.Refresh, middleware.Public())

	// --- Own account; static paths win over /users/:id ---
	add(http.MethodGet, "/users/me", userHandler.GetMe, middleware.Authenticated())
	add(http.MethodPut, "/users/me", userHandler.ReplaceMe, middleware.Authenticated())
	add(http.MethodPatch, "/users/me", userHandler.UpdateMe, middleware.Authenticated())
	add(http.MethodDelete, "/users/me", userHandler.DeleteMe, middleware.Authenticated())
	add(http.MethodPut, "/users/me/password", userHandler.UpdatePassword, middleware.Authenticated())

	// --- User routes ---
	add(http.MethodPost, "/users", userHandler.Create, middleware.Public())
	add(http.MethodGet, "/users", userHandler.List, middleware.Authenticated())
	add(http.MethodGet, "/users/:id", userHandler.Get, middleware.Authenticated())
	add(http.MethodPut, "/users/:id", userHandler.Replace, middleware.Authenticated())
	add(http.MethodPatch, "/users/:id", userHandler.Update, middleware.Authenticated())
	add(http.MethodDelete, "/users/:id", userHandler.Delete, middleware.Roles(domain.RoleAdmin))

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	if deps.Registerer != nil {
		gatherer := deps.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
