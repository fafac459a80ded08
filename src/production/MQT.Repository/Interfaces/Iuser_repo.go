package interfaces

import (
	"context"

	auth_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/auth"
)

type UserRepository interface {
	// Create inserts a user; ErrDuplicate when username or email is taken
	Create(ctx context.Context, user *auth_models.User) error

	// GetByEmail returns ErrNotFound when no user has this email
	GetByEmail(ctx context.Context, email string) (*auth_models.User, error)
}
