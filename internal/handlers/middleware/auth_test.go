package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akondratenko/tokengate/internal/handlers/subjectctx"
)

// Allow to use a function as verifier
type verifierFunc func(ctx context.Context, access string) (string, error)

func (f verifierFunc) VerifyAccess(ctx context.Context, access string) (string, error) {
	return f(ctx, access)
}

func TestAuth(t *testing.T) {
	// Simple handler that writes the subject from context to the response.
	// Middleware has to either set the subject or reject the request.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, ok := subjectctx.FromContext(r.Context())
		require.True(t, ok)

		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(subject))
		require.NoError(t, err, "should write subject to response")
	})

	t.Run("auth ok", func(t *testing.T) {
		middleware := Auth(verifierFunc(func(ctx context.Context, access string) (string, error) {
			require.Equal(t, "some-access-token", access, "token should be extracted from the bearer header")
			return "alice", nil
		}))

		srv := httptest.NewServer(middleware(handler))
		defer srv.Close()

		req, err := http.NewRequest(http.MethodGet, srv.URL+"/test", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer some-access-token")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err, "should make request to test server")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err, "should read response body")
		defer resp.Body.Close() // nolint:errcheck

		require.Equalf(t, http.StatusOK, resp.StatusCode, "should return status OK. Resp: %s", string(body))
		require.Equal(t, "alice", string(body), "should return subject in response")
	})

	t.Run("verify fail", func(t *testing.T) {
		middleware := Auth(verifierFunc(func(ctx context.Context, access string) (string, error) {
			return "", errors.New("no way")
		}))

		srv := httptest.NewServer(middleware(handler))
		defer srv.Close()

		req, err := http.NewRequest(http.MethodGet, srv.URL+"/test", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer some-access-token")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err, "should make request to test server")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err, "should read response body")
		defer resp.Body.Close() // nolint:errcheck

		require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "should return status Unauthorized. Resp: %s", string(body))
		require.JSONEq(t,
			`{
				"error": "service_error",
				"message": "Unauthorized"
			}`,
			string(body),
		)
	})

	t.Run("no bearer header", func(t *testing.T) {
		middleware := Auth(verifierFunc(func(ctx context.Context, access string) (string, error) {
			t.Fatal("verifier must not be called without a bearer token")
			return "", nil
		}))

		srv := httptest.NewServer(middleware(handler))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/test")
		require.NoError(t, err, "should make request to test server")
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("wrong auth scheme", func(t *testing.T) {
		middleware := Auth(verifierFunc(func(ctx context.Context, access string) (string, error) {
			t.Fatal("verifier must not be called for non bearer schemes")
			return "", nil
		}))

		srv := httptest.NewServer(middleware(handler))
		defer srv.Close()

		req, err := http.NewRequest(http.MethodGet, srv.URL+"/test", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Basic YWxpY2U6c2VjcmV0")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
