package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/akondratenko/tokengate/internal/apperrors"
	"github.com/akondratenko/tokengate/internal/logger"
)

const (
	defaultTokenURL     = "https://oauth2.googleapis.com/token"
	defaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

	// Outbound calls to the provider are bounded, a slow provider must not
	// pile up request handlers
	requestTimeout = 10 * time.Second
)

// Profile asserted by the identity provider for a verified token
type Profile struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Tokens returned by the provider on a code exchange
type Tokens struct {
	IDToken     string `json:"id_token"`
	AccessToken string `json:"access_token"`
}

// Provider is the boundary to the third party identity provider.
// Signature, issuer and audience validation of the id token happen on the
// provider side, this service only consumes the verified claims.
type Provider interface {
	VerifyIDToken(ctx context.Context, idToken string) (Profile, error)
	ExchangeCode(ctx context.Context, code string, redirectURI string) (Tokens, error)
}

type ClientConfig struct {
	// OAuth client credentials registered with the provider
	ClientID     string
	ClientSecret string

	// Endpoint overrides, production defaults if empty
	TokenURL     string
	TokenInfoURL string
}

// Client talks to Google's token endpoints over plain HTTP
type Client struct {
	clientID     string
	clientSecret string
	tokenURL     string
	tokenInfoURL string

	client *http.Client
	logger logger.Logger
}

func NewClient(cfg ClientConfig, l logger.Logger) *Client {
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.TokenInfoURL == "" {
		cfg.TokenInfoURL = defaultTokenInfoURL
	}
	if l == nil {
		l = logger.NewNoOp()
	}

	return &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tokenURL:     cfg.TokenURL,
		tokenInfoURL: cfg.TokenInfoURL,
		client:       &http.Client{},
		logger:       l,
	}
}

// VerifyIDToken asks the provider's tokeninfo endpoint to validate the token
// and returns the claims it asserts. Any provider side rejection surfaces as
// apperrors.ErrIdentityTokenInvalid.
func (c *Client) VerifyIDToken(ctx context.Context, idToken string) (Profile, error) {
	var profile Profile

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	reqURL := c.tokenInfoURL + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return profile, fmt.Errorf("%w: failed to create request: %w", apperrors.ErrIdentityTokenInvalid, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return profile, fmt.Errorf("%w: failed to reach provider: %w", apperrors.ErrIdentityTokenInvalid, err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Provider rejected id token", "status_code", resp.StatusCode)
		return profile, fmt.Errorf("%w: status %d", apperrors.ErrIdentityTokenInvalid, resp.StatusCode)
	}

	var claims struct {
		Profile
		Audience string `json:"aud"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return profile, fmt.Errorf("%w: failed to decode response: %w", apperrors.ErrIdentityTokenInvalid, err)
	}

	// tokeninfo validates signature, issuer and expiry; the audience is ours
	// to check when a client id is configured
	if c.clientID != "" && claims.Audience != c.clientID {
		c.logger.Warn("Id token audience mismatch", "aud", claims.Audience)
		return profile, fmt.Errorf("%w: audience mismatch", apperrors.ErrIdentityTokenInvalid)
	}

	return claims.Profile, nil
}

// ExchangeCode trades an authorization code for the provider's tokens.
// Rejected, reused or mismatched codes and provider timeouts all surface as
// apperrors.ErrExchangeFailed.
func (c *Client) ExchangeCode(ctx context.Context, code string, redirectURI string) (Tokens, error) {
	var tokens Tokens

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	form := url.Values{
		"code":          {code},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"redirect_uri":  {redirectURI},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return tokens, fmt.Errorf("%w: failed to create request: %w", apperrors.ErrExchangeFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return tokens, fmt.Errorf("%w: failed to reach provider: %w", apperrors.ErrExchangeFailed, err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Provider rejected authorization code", "status_code", resp.StatusCode)
		return tokens, fmt.Errorf("%w: status %d", apperrors.ErrExchangeFailed, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return tokens, fmt.Errorf("%w: failed to decode response: %w", apperrors.ErrExchangeFailed, err)
	}

	return tokens, nil
}
