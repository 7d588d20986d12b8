package ports

import (
	"context"

	"github.com/agileflow/user-service/internal/core/domain"
)

// UserPatch carries the profile fields to change. Nil fields are left as is.
type UserPatch struct {
	Email     *string
	FirstName *string
	LastName  *string
	Gender    *domain.Gender
}

// UserRepository defines the persistence contract for user accounts.
// Lookups return domain.ErrUserNotFound when no account matches.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, id string, patch UserPatch) (*domain.User, error)
	// UpdatePassword stores an already hashed password.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
	// ExistsByEmail reports whether another account uses email. excludeID,
	// when non-empty, is ignored in the check.
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
}
