package ports

import (
	"context"

	"github.com/agileflow/user-service/internal/core/domain"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error)
}
