package ports

import (
	"context"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/agileflow/user-service/internal/core/domain"
)

// PasswordHasher produces and checks salted one-way password hashes.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	// Verify returns false for a mismatch or a malformed hash. The error is
	// reserved for the job not running at all (e.g. ctx cancelled).
	Verify(ctx context.Context, plaintext, hash string) (bool, error)
}

// TokenIssuer mints signed access/refresh pairs.
type TokenIssuer interface {
	Issue(userID string, roles mapset.Set[domain.Role]) (domain.TokenPair, error)
}

// TokenVerifier validates tokens of a given class.
type TokenVerifier interface {
	VerifyAccess(token string) (domain.RequestIdentity, error)
	VerifyRefresh(token string) (domain.RefreshClaims, error)
}

// TokenManager issues and verifies tokens with the same key material.
type TokenManager interface {
	TokenIssuer
	TokenVerifier
}

// RefreshLedger records consumed refresh-token ids for rotation.
type RefreshLedger interface {
	// Consume marks tokenID as used until expiresAt. It returns false when
	// the id had already been consumed.
	Consume(ctx context.Context, tokenID string, expiresAt time.Time) (bool, error)
}
