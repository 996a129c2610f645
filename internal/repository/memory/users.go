package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/akondratenko/tokengate/internal/apperrors"
	"github.com/akondratenko/tokengate/internal/models"
	"github.com/akondratenko/tokengate/internal/repository"
)

// UserRepo keeps users in a process local map. It is the development
// stand-in for a real store, matching the repository.UserRepo contract.
type UserRepo struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		users: make(map[string]models.User),
	}
}

func (r *UserRepo) CreateUser(ctx context.Context, arg repository.CreateUserParams) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[arg.Username]; ok {
		return models.User{}, apperrors.ErrUserAlreadyExists
	}

	user := models.User{
		ID:           uuid.New(),
		CreatedAt:    time.Now(),
		Username:     arg.Username,
		PasswordHash: arg.PasswordHash,
	}
	r.users[arg.Username] = user

	return user, nil
}

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[username]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}

	return user, nil
}
