package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/akondratenko/tokengate/internal/handlers/render"
	"github.com/akondratenko/tokengate/internal/handlers/subjectctx"
)

type verifier interface {
	// Verify a presented access token and return its subject
	VerifyAccess(ctx context.Context, access string) (string, error)
}

// Auth guards handlers with bearer token authentication. The verifier decides
// which signing context the token must come from, so the credential and the
// federated routes get separate instances of this middleware.
func Auth(v verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access, ok := bearerToken(r)
			if !ok {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			subject, err := v.VerifyAccess(r.Context(), access)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := subjectctx.New(r.Context(), subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")

	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}

	return token, true
}
