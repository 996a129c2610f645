package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/akondratenko/tokengate/internal/apperrors"
	"github.com/akondratenko/tokengate/internal/models"
	"github.com/akondratenko/tokengate/internal/token"
)

type Config struct {
	// Manager of the federated flow signing context. It is a different
	// manager than the credential flow uses: the two keys are independent
	// and their tokens do not cross.
	// Required to be set
	Manager *token.Manager

	// Provider boundary, production client if building the real thing
	// Required to be set
	Provider Provider
}

// Service exchanges a third party identity assertion for a locally issued
// access token keyed to the verified email. The federated flow never issues
// refresh tokens.
type Service struct {
	token    *token.Manager
	provider Provider
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Manager == nil {
		return nil, errors.New("token manager must not be nil")
	}
	if cfg.Provider == nil {
		return nil, errors.New("identity provider must not be nil")
	}

	return &Service{
		token:    cfg.Manager,
		provider: cfg.Provider,
	}, nil
}

// LoginWithIDToken verifies the id token with the provider and mints a local
// access token for the asserted email
func (s *Service) LoginWithIDToken(ctx context.Context, idToken string) (models.IssuedToken, Profile, error) {
	profile, err := s.provider.VerifyIDToken(ctx, idToken)
	if err != nil {
		return models.IssuedToken{}, Profile{}, err
	}

	return s.mint(profile)
}

// LoginWithCode exchanges the authorization code first, then verifies the
// returned id token as LoginWithIDToken does. The provider's own access
// token is handed back to the caller untouched.
func (s *Service) LoginWithCode(ctx context.Context, code string, redirectURI string) (models.IssuedToken, Profile, string, error) {
	tokens, err := s.provider.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		return models.IssuedToken{}, Profile{}, "", err
	}

	if tokens.IDToken == "" {
		return models.IssuedToken{}, Profile{}, "", fmt.Errorf("%w: provider returned no id token", apperrors.ErrExchangeFailed)
	}

	profile, err := s.provider.VerifyIDToken(ctx, tokens.IDToken)
	if err != nil {
		return models.IssuedToken{}, Profile{}, "", err
	}

	access, profile, err := s.mint(profile)
	if err != nil {
		return models.IssuedToken{}, Profile{}, "", err
	}

	return access, profile, tokens.AccessToken, nil
}

// VerifyAccess returns the email of a presented federated access token.
// Tokens minted by the credential flow fail here, the signing contexts are
// separate on purpose.
func (s *Service) VerifyAccess(ctx context.Context, access string) (string, error) {
	email, err := s.token.ParseAccess(access)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrUnauthenticated, err)
	}

	return email, nil
}

func (s *Service) mint(profile Profile) (models.IssuedToken, Profile, error) {
	// A provider error and a missing email are different failures: the
	// token verified fine, the account just exposes no email to us
	if profile.Email == "" {
		return models.IssuedToken{}, Profile{}, apperrors.ErrMissingEmail
	}

	access, err := s.token.IssueAccess(profile.Email)
	if err != nil {
		return models.IssuedToken{}, Profile{}, fmt.Errorf("error while issuing access token. Err: %w", err)
	}

	return access, profile, nil
}
