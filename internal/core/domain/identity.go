package domain

import (
	"context"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// TokenClass separates access tokens from refresh tokens. It is carried in
// the "type" claim and checked on every verification.
type TokenClass string

const (
	TokenAccess  TokenClass = "access"
	TokenRefresh TokenClass = "refresh"
)

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RequestIdentity is the caller resolved from a verified access token. It
// lives for one request only.
type RequestIdentity struct {
	UserID string
	Roles  mapset.Set[Role]
}

// HasAnyRole reports whether the identity holds at least one of required.
func (id RequestIdentity) HasAnyRole(required mapset.Set[Role]) bool {
	if id.Roles == nil || required == nil {
		return false
	}
	return id.Roles.Intersect(required).Cardinality() > 0
}

// RefreshClaims is what a verified refresh token yields.
type RefreshClaims struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id RequestIdentity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity attached by the authentication
// guard, if any.
func IdentityFromContext(ctx context.Context) (RequestIdentity, bool) {
	id, ok := ctx.Value(identityKey{}).(RequestIdentity)
	return id, ok
}
