package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/akondratenko/tokengate/internal/apperrors"
	"github.com/akondratenko/tokengate/internal/models"
	"github.com/akondratenko/tokengate/internal/repository"
	"github.com/akondratenko/tokengate/internal/token"
)

// Cookie the refresh token travels in. HttpOnly so scripts never see it.
const RefreshCookieName = "refresh_token"

type Config struct {
	// Manager of the credential flow signing context
	// Required to be set
	Manager *token.Manager

	// Principal store to look users up in
	// Required to be set
	Users repository.UserRepo

	// Hasher to compare user passwords, bcrypt if not set
	Hasher Hasher
}

// Service orchestrates login, refresh and logout. It keeps no state between
// requests: every decision is derived from the presented token.
type Service struct {
	token  *token.Manager
	users  repository.UserRepo
	hasher Hasher
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Manager == nil {
		return nil, errors.New("token manager must not be nil")
	}
	if cfg.Users == nil {
		return nil, errors.New("user repo must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	return &Service{
		token:  cfg.Manager,
		users:  cfg.Users,
		hasher: hasher,
	}, nil
}

// Login checks the credentials against the principal store and issues a
// fresh token pair. Unknown user and wrong password are indistinguishable
// to the caller.
func (s *Service) Login(ctx context.Context, username string, password string) (models.TokenPair, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return models.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return models.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	pair, err := s.token.IssuePair(user.Username)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("error while issuing token pair. Err: %w", err)
	}

	return pair, nil
}

// Refresh verifies the refresh token and issues a new access token only.
// The refresh token itself is left as is, there is no rotation.
func (s *Service) Refresh(ctx context.Context, refresh string) (models.IssuedToken, error) {
	subject, err := s.token.ParseRefresh(refresh)
	if err != nil {
		return models.IssuedToken{}, err
	}

	access, err := s.token.IssueAccess(subject)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while issuing access token. Err: %w", err)
	}

	return access, nil
}

// VerifyAccess returns the subject of a presented access token.
// Every verification failure surfaces as apperrors.ErrUnauthenticated.
func (s *Service) VerifyAccess(ctx context.Context, access string) (string, error) {
	subject, err := s.token.ParseAccess(access)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrUnauthenticated, err)
	}

	return subject, nil
}

// RefreshFromRequest extracts the refresh token from the request cookie
func (s *Service) RefreshFromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil {
		return "", apperrors.ErrMissingRefreshToken
	}

	return cookie.Value, nil
}

// SetRefreshCookie attaches the refresh token to the response as a scoped
// HttpOnly cookie with a SameSite=Lax cross site send policy
func (s *Service) SetRefreshCookie(w http.ResponseWriter, refresh models.IssuedToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    refresh.Value,
		Path:     "/",
		MaxAge:   int(time.Until(refresh.ExpiresAt).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearRefreshCookie instructs the client to discard the refresh cookie.
// Tokens are stateless, so this is all a logout does.
func (s *Service) ClearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
