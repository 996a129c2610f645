package google

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akondratenko/tokengate/internal/apperrors"
)

func Test_Client_VerifyIDToken(t *testing.T) {
	t.Parallel()

	t.Run("valid token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodGet, r.Method)
			require.Equal(t, "provider-id-token", r.URL.Query().Get("id_token"))

			_ = json.NewEncoder(w).Encode(map[string]string{
				"aud":     "client-id",
				"email":   "alice@example.com",
				"name":    "Alice",
				"picture": "https://example.com/a.png",
			})
		}))
		defer srv.Close()

		c := NewClient(ClientConfig{ClientID: "client-id", TokenInfoURL: srv.URL}, nil)

		profile, err := c.VerifyIDToken(t.Context(), "provider-id-token")
		require.NoError(t, err)
		require.Equal(t, "alice@example.com", profile.Email)
		require.Equal(t, "Alice", profile.Name)
		require.Equal(t, "https://example.com/a.png", profile.Picture)
	})

	t.Run("provider rejects token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error": "invalid_token"}`, http.StatusBadRequest)
		}))
		defer srv.Close()

		c := NewClient(ClientConfig{TokenInfoURL: srv.URL}, nil)

		_, err := c.VerifyIDToken(t.Context(), "bad-token")
		require.ErrorIs(t, err, apperrors.ErrIdentityTokenInvalid)
	})

	t.Run("audience mismatch", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{
				"aud":   "someone-elses-client",
				"email": "alice@example.com",
			})
		}))
		defer srv.Close()

		c := NewClient(ClientConfig{ClientID: "client-id", TokenInfoURL: srv.URL}, nil)

		_, err := c.VerifyIDToken(t.Context(), "provider-id-token")
		require.ErrorIs(t, err, apperrors.ErrIdentityTokenInvalid, "token issued for another client must fail")
	})

	t.Run("provider unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // close right away to get a refused connection

		c := NewClient(ClientConfig{TokenInfoURL: srv.URL}, nil)

		_, err := c.VerifyIDToken(t.Context(), "provider-id-token")
		require.ErrorIs(t, err, apperrors.ErrIdentityTokenInvalid)
	})
}

func Test_Client_ExchangeCode(t *testing.T) {
	t.Parallel()

	t.Run("valid code", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.NoError(t, r.ParseForm())
			require.Equal(t, "auth-code", r.PostForm.Get("code"))
			require.Equal(t, "client-id", r.PostForm.Get("client_id"))
			require.Equal(t, "client-secret", r.PostForm.Get("client_secret"))
			require.Equal(t, "https://app.example.com/cb", r.PostForm.Get("redirect_uri"))
			require.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))

			_ = json.NewEncoder(w).Encode(map[string]string{
				"id_token":     "provider-id-token",
				"access_token": "provider-access",
			})
		}))
		defer srv.Close()

		c := NewClient(ClientConfig{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			TokenURL:     srv.URL,
		}, nil)

		tokens, err := c.ExchangeCode(t.Context(), "auth-code", "https://app.example.com/cb")
		require.NoError(t, err)
		require.Equal(t, "provider-id-token", tokens.IDToken)
		require.Equal(t, "provider-access", tokens.AccessToken)
	})

	t.Run("provider rejects code", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error": "invalid_grant"}`, http.StatusBadRequest)
		}))
		defer srv.Close()

		c := NewClient(ClientConfig{TokenURL: srv.URL}, nil)

		_, err := c.ExchangeCode(t.Context(), "reused-code", "https://app.example.com/cb")
		require.ErrorIs(t, err, apperrors.ErrExchangeFailed)
	})

	t.Run("provider unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		c := NewClient(ClientConfig{TokenURL: srv.URL}, nil)

		_, err := c.ExchangeCode(t.Context(), "auth-code", "https://app.example.com/cb")
		require.ErrorIs(t, err, apperrors.ErrExchangeFailed)
	})
}

func Test_NewClient_Defaults(t *testing.T) {
	c := NewClient(ClientConfig{}, nil)

	require.Equal(t, defaultTokenURL, c.tokenURL)
	require.Equal(t, defaultTokenInfoURL, c.tokenInfoURL)
	require.NotNil(t, c.logger, "nil logger should fall back to no-op")
}
