package repository

import (
	"context"

	"github.com/akondratenko/tokengate/internal/models"
)

type CreateUserParams struct {
	Username     string
	PasswordHash string
}

// Principal lookup capability the session flow depends on.
// The service owns no user persistence itself: the in-memory stand-in is the
// default and a real store may be substituted without touching the flows.
type UserRepo interface {
	// Create user
	// If user with username exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}
