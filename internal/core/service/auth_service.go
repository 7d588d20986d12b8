package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agileflow/user-service/internal/api/metrics"
	"github.com/agileflow/user-service/internal/core/domain"
	"github.com/agileflow/user-service/internal/core/ports"
)

// AuthService implements login and token refresh.
type AuthService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenManager
	ledger ports.RefreshLedger
	audit  auditTrail
	log    zerolog.Logger

	// dummyHash is verified against on unknown emails so both failure paths
	// cost one hash comparison.
	dummyMu   sync.Mutex
	dummyHash string
}

const dummyPassword = "not-a-real-password"

// NewAuthService wires the auth flow. ledger may be nil, in which case refresh
// tokens stay valid until they expire. audit may be nil.
func NewAuthService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenManager,
	ledger ports.RefreshLedger,
	audit ports.AuditRepository,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		ledger: ledger,
		audit:  auditTrail{repo: audit, log: log},
		log:    log,
	}
}

// Login exchanges credentials for a token pair. Unknown emails and wrong
// passwords fail with the same ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	if email == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return domain.TokenPair{}, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.verifyDummy(ctx, password)
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		s.audit.record(ctx, domain.AuditLoginFailed, "", email)
		return domain.TokenPair{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return domain.TokenPair{}, fmt.Errorf("login: find user: %w", err)
	}

	ok, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return domain.TokenPair{}, fmt.Errorf("login: %w", err)
	}
	if !ok {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		s.audit.record(ctx, domain.AuditLoginFailed, user.ID, email)
		return domain.TokenPair{}, domain.ErrInvalidCredentials
	}

	pair, err := s.tokens.Issue(user.ID, user.RoleSet())
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return domain.TokenPair{}, fmt.Errorf("login: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.audit.record(ctx, domain.AuditLoginSucceeded, user.ID, user.Email)
	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return pair, nil
}

// Refresh exchanges a refresh token for a new pair. Roles come from the store,
// not from the presented token, so role changes apply on the next refresh.
// With a ledger configured each refresh token is accepted once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		metrics.RefreshesTotal.WithLabelValues("invalid_token").Inc()
		return domain.TokenPair{}, err
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		metrics.RefreshesTotal.WithLabelValues("unknown_user").Inc()
		return domain.TokenPair{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		metrics.RefreshesTotal.WithLabelValues("error").Inc()
		return domain.TokenPair{}, fmt.Errorf("refresh: find user: %w", err)
	}

	// The token is burned only once nothing but issuing is left, so a store
	// failure above leaves it usable for a retry.
	if s.ledger != nil {
		fresh, err := s.ledger.Consume(ctx, claims.TokenID, claims.ExpiresAt)
		if err != nil {
			metrics.RefreshesTotal.WithLabelValues("error").Inc()
			return domain.TokenPair{}, fmt.Errorf("refresh: consume token: %w", err)
		}
		if !fresh {
			metrics.RefreshesTotal.WithLabelValues("reused").Inc()
			s.log.Warn().Str("user_id", claims.UserID).Str("jti", claims.TokenID).Msg("refresh token reuse rejected")
			s.audit.record(ctx, domain.AuditRefreshReused, claims.UserID, "")
			return domain.TokenPair{}, domain.ErrTokenReused
		}
	}

	pair, err := s.tokens.Issue(user.ID, user.RoleSet())
	if err != nil {
		metrics.RefreshesTotal.WithLabelValues("error").Inc()
		return domain.TokenPair{}, fmt.Errorf("refresh: %w", err)
	}

	metrics.RefreshesTotal.WithLabelValues("success").Inc()
	s.audit.record(ctx, domain.AuditTokenRefreshed, user.ID, "")
	return pair, nil
}

// verifyDummy runs one Verify whose result is discarded. The hash is built on
// first use with the configured cost; a failed build is retried next time.
func (s *AuthService) verifyDummy(ctx context.Context, password string) {
	s.dummyMu.Lock()
	if s.dummyHash == "" {
		hash, err := s.hasher.Hash(ctx, dummyPassword)
		if err != nil {
			s.dummyMu.Unlock()
			return
		}
		s.dummyHash = hash
	}
	hash := s.dummyHash
	s.dummyMu.Unlock()

	_, _ = s.hasher.Verify(ctx, password, hash)
}
