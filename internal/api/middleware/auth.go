package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/agileflow/user-service/internal/api/metrics"
	"github.com/agileflow/user-service/internal/core/domain"
	"github.com/agileflow/user-service/internal/core/ports"
)

// Authenticate resolves the caller from the bearer access token and attaches
// the identity to the request context. Public routes pass untouched, even
// when they carry a token.
func Authenticate(verifier ports.TokenVerifier) Guard {
	return func(c echo.Context, policy RoutePolicy) error {
		if policy.Public {
			return nil
		}

		token, err := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return unauthenticated(err)
		}

		identity, err := verifier.VerifyAccess(token)
		if err != nil {
			return unauthenticated(err)
		}

		req := c.Request()
		c.SetRequest(req.WithContext(domain.WithIdentity(req.Context(), identity)))
		return nil
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", domain.ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", domain.ErrInvalidAuthScheme
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", domain.ErrInvalidAuthScheme
	}
	return token, nil
}

func unauthenticated(err error) error {
	reason, msg := "invalid_token", "invalid token"
	switch {
	case errors.Is(err, domain.ErrMissingToken):
		reason, msg = "missing_header", "missing authorization header"
	case errors.Is(err, domain.ErrInvalidAuthScheme):
		reason, msg = "invalid_header", "invalid authorization header"
	case errors.Is(err, domain.ErrTokenExpired):
		reason = "expired"
	case errors.Is(err, domain.ErrTokenSignature):
		reason = "bad_signature"
	case errors.Is(err, domain.ErrTokenClass):
		reason = "wrong_type"
	case errors.Is(err, domain.ErrTokenMalformed):
		reason = "malformed"
	}
	metrics.GuardRejectionsTotal.WithLabelValues("authentication", reason).Inc()
	return echo.NewHTTPError(http.StatusUnauthorized, msg).SetInternal(err)
}
