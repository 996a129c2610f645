package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/akondratenko/tokengate/internal/apperrors"
	"github.com/akondratenko/tokengate/internal/repository"
	"github.com/akondratenko/tokengate/internal/testutil"
)

func Test_UserRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("create and get user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := &UserRepo{DB: tx}

			created, err := repo.CreateUser(t.Context(), repository.CreateUserParams{
				Username:     "alice",
				PasswordHash: "hashed",
			})
			require.NoError(t, err)
			require.Equal(t, "alice", created.Username)
			require.NotZero(t, created.CreatedAt, "created_at should be set by the database")

			user, err := repo.GetUserByUsername(t.Context(), "alice")
			require.NoError(t, err)
			require.Equal(t, created.ID, user.ID)
			require.Equal(t, "hashed", user.PasswordHash)
		})
	})

	t.Run("create duplicate fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := &UserRepo{DB: tx}

			_, err := repo.CreateUser(t.Context(), repository.CreateUserParams{Username: "alice", PasswordHash: "one"})
			require.NoError(t, err)

			_, err = repo.CreateUser(t.Context(), repository.CreateUserParams{Username: "alice", PasswordHash: "two"})
			require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
		})
	})

	t.Run("get unknown user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := &UserRepo{DB: tx}

			_, err := repo.GetUserByUsername(t.Context(), "nobody")
			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})
}
