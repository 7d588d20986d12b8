package service

import (
	"errors"
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/agileflow/user-service/internal/core/domain"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenConfig holds the signing material and lifetimes for both token classes.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string // falls back to AccessSecret when empty
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// accessClaims is the access token payload.
type accessClaims struct {
	jwt.RegisteredClaims
	Roles []domain.Role     `json:"roles"`
	Type  domain.TokenClass `json:"type"`
}

// refreshClaims carries only the subject; roles are re-read on refresh.
type refreshClaims struct {
	jwt.RegisteredClaims
	Type domain.TokenClass `json:"type"`
}

// TokenService issues and verifies HS256 access/refresh token pairs.
type TokenService struct {
	cfg    TokenConfig
	now    func() time.Time
	parser *jwt.Parser
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.AccessSecret == "" {
		return nil, errors.New("token service: access secret is required")
	}
	if cfg.RefreshSecret == "" {
		cfg.RefreshSecret = cfg.AccessSecret
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	if cfg.RefreshTTL <= cfg.AccessTTL {
		return nil, fmt.Errorf("token service: refresh ttl %s must exceed access ttl %s", cfg.RefreshTTL, cfg.AccessTTL)
	}

	s := &TokenService{cfg: cfg, now: time.Now}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s, nil
}

// Issue mints a fresh access/refresh pair for userID.
func (s *TokenService) Issue(userID string, roles mapset.Set[domain.Role]) (domain.TokenPair, error) {
	now := s.now()

	access := accessClaims{
		RegisteredClaims: s.registered(userID, now, s.cfg.AccessTTL),
		Roles:            domain.SortedRoles(roles),
		Type:             domain.TokenAccess,
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, access).SignedString([]byte(s.cfg.AccessSecret))
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh := refreshClaims{
		RegisteredClaims: s.registered(userID, now, s.cfg.RefreshTTL),
		Type:             domain.TokenRefresh,
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refresh).SignedString([]byte(s.cfg.RefreshSecret))
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return domain.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// VerifyAccess validates an access token and returns the identity it encodes.
func (s *TokenService) VerifyAccess(token string) (domain.RequestIdentity, error) {
	var claims accessClaims
	if err := s.parse(token, &claims, s.cfg.AccessSecret); err != nil {
		return domain.RequestIdentity{}, err
	}
	if claims.Type != domain.TokenAccess {
		return domain.RequestIdentity{}, domain.ErrTokenClass
	}
	if claims.Subject == "" || len(claims.Roles) == 0 {
		return domain.RequestIdentity{}, domain.ErrTokenMalformed
	}
	for _, r := range claims.Roles {
		if !r.Valid() {
			return domain.RequestIdentity{}, domain.ErrTokenMalformed
		}
	}

	return domain.RequestIdentity{
		UserID: claims.Subject,
		Roles:  domain.NewRoleSet(claims.Roles...),
	}, nil
}

// VerifyRefresh validates a refresh token.
func (s *TokenService) VerifyRefresh(token string) (domain.RefreshClaims, error) {
	var claims refreshClaims
	if err := s.parse(token, &claims, s.cfg.RefreshSecret); err != nil {
		return domain.RefreshClaims{}, err
	}
	if claims.Type != domain.TokenRefresh {
		return domain.RefreshClaims{}, domain.ErrTokenClass
	}
	if claims.Subject == "" || claims.ID == "" {
		return domain.RefreshClaims{}, domain.ErrTokenMalformed
	}

	return domain.RefreshClaims{
		UserID:    claims.Subject,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *TokenService) registered(userID string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

// parse verifies signature and expiry, translating jwt errors into domain
// sentinels. Claims must not be used when it returns an error.
func (s *TokenService) parse(token string, claims jwt.Claims, secret string) error {
	if token == "" {
		return domain.ErrTokenMalformed
	}

	parsed, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	switch {
	case err == nil && parsed.Valid:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return domain.ErrTokenSignature
	default:
		return domain.ErrTokenMalformed
	}
}
