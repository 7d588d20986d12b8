package ports

import (
	"context"

	"github.com/agileflow/user-service/internal/core/domain"
)

// CreateUserInput carries the data for a new account. Password is plaintext
// and is hashed by the service before it reaches the repository.
type CreateUserInput struct {
	Email     string
	FirstName string
	LastName  string
	Gender    *domain.Gender
	Password  string
}

// UserService defines the account use cases exposed over HTTP.
type UserService interface {
	Create(ctx context.Context, input CreateUserInput) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, patch UserPatch) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, currentPassword, newPassword string) error
}
