package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/akondratenko/tokengate/internal/apperrors"
	"github.com/akondratenko/tokengate/internal/models"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

const (
	defaultSigningMethod   = "HS256"
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims signed into every issued token. Subject holds the principal id
// (username for the credential flow, email for the federated one).
// A missing "type" means access, kept for tokens minted before the tag existed.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"type,omitempty"`
}

// Manager with sensible defaults
type Config struct {
	// Secret key to sign token payloads
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set then default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set then default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Manager issues and verifies signed tokens for exactly one signing context.
// The service runs two of them (credential flow and federated flow) with
// distinct secrets, so tokens never cross between the flows.
type Manager struct {
	key string
	alg jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(cfg Config) (*Manager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &Manager{
		key:        cfg.SecretKey,
		alg:        jwt.GetSigningMethod(cfg.Alg),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

// IssueAccess signs a short lived access token for the subject
func (m *Manager) IssueAccess(subject string) (models.IssuedToken, error) {
	return m.issue(subject, TypeAccess, m.accessTTL)
}

// IssueRefresh signs a long lived refresh token for the subject
func (m *Manager) IssueRefresh(subject string) (models.IssuedToken, error) {
	return m.issue(subject, TypeRefresh, m.refreshTTL)
}

// IssuePair issues access and refresh tokens at once, as the login flow needs
func (m *Manager) IssuePair(subject string) (models.TokenPair, error) {
	access, err := m.IssueAccess(subject)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, err := m.IssueRefresh(subject)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

func (m *Manager) issue(subject string, tokenType string, ttl time.Duration) (models.IssuedToken, error) {
	var issued models.IssuedToken

	if subject == "" {
		return issued, errors.New("subject must not be empty")
	}

	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(
		m.alg,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   subject,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			TokenType: tokenType,
		},
	)

	signed, err := token.SignedString([]byte(m.key))
	if err != nil {
		return issued, fmt.Errorf("error while signing %s token. Err: %w", tokenType, err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// ParseAccess parses and validates a presented token and returns its subject.
// Every decode failure (signature, malformed, expired, empty subject)
// collapses into apperrors.ErrTokenInvalid.
//
// Known weakness: the type claim is NOT checked here, so a refresh token
// passes wherever an access token is expected. Only the refresh flow demands
// the type, see ParseRefresh.
func (m *Manager) ParseAccess(access string) (subject string, err error) {
	claims, err := m.parse(access)
	if err != nil {
		return "", err
	}

	return claims.Subject, nil
}

// ParseRefresh parses the token like ParseAccess does and additionally
// demands the "refresh" type tag. An access token presented here fails with
// apperrors.ErrWrongTokenType.
func (m *Manager) ParseRefresh(refresh string) (subject string, err error) {
	claims, err := m.parse(refresh)
	if err != nil {
		return "", err
	}

	if claims.TokenType != TypeRefresh {
		return "", apperrors.ErrWrongTokenType
	}

	return claims.Subject, nil
}

func (m *Manager) parse(value string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(
		value,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(m.key), nil },
		jwt.WithValidMethods([]string{m.alg.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrTokenInvalid, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: subject claim is empty", apperrors.ErrTokenInvalid)
	}

	return claims, nil
}
