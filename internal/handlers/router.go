package handlers

import (
	"context"
	"net/http"

	"github.com/akondratenko/tokengate/internal/handlers/middleware"
	"github.com/akondratenko/tokengate/internal/logger"
	"github.com/akondratenko/tokengate/internal/models"
	"github.com/akondratenko/tokengate/internal/service/google"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

// NewRouter wires the whole HTTP surface. The credential flow and the
// federated flow keep separate verifiers: /protected accepts only session
// tokens, /user/me accepts only federated ones.
func NewRouter(
	session sessionService,
	googleSvc googleService,
	l logger.Logger,
) http.Handler {
	sessionAuth := middleware.Auth(session)
	federatedAuth := middleware.Auth(googleSvc)

	mux := http.NewServeMux()

	mux.Handle("POST /login", handleLogin(session, l))
	mux.Handle("POST /refresh", handleRefresh(session, l))
	mux.Handle("POST /logout", handleLogout(session))
	mux.Handle("GET /protected", sessionAuth(handleProtected()))

	mux.Handle("POST /auth/google", handleGoogleLogin(googleSvc, l))
	mux.Handle("POST /auth/google/code", handleGoogleCodeLogin(googleSvc, l))
	mux.Handle("GET /user/me", federatedAuth(handleUserMe()))

	mux.Handle("GET /{$}", handleRoot())

	return chain(mux,
		middleware.Logger(l),
	)
}

type sessionService interface {
	// Login user with username and password
	// Has to return apperrors.ErrInvalidCredentials for unknown user and
	// wrong password both
	Login(ctx context.Context, username string, password string) (models.TokenPair, error)

	// Issue a new access token for a valid refresh token
	Refresh(ctx context.Context, refresh string) (models.IssuedToken, error)

	// Verify an access token and return its subject
	VerifyAccess(ctx context.Context, access string) (string, error)

	// Refresh cookie transport
	RefreshFromRequest(r *http.Request) (string, error)
	SetRefreshCookie(w http.ResponseWriter, refresh models.IssuedToken)
	ClearRefreshCookie(w http.ResponseWriter)
}

type googleService interface {
	// Exchange a verified provider identity for a locally issued token
	LoginWithIDToken(ctx context.Context, idToken string) (models.IssuedToken, google.Profile, error)
	LoginWithCode(ctx context.Context, code string, redirectURI string) (models.IssuedToken, google.Profile, string, error)

	// Verify a federated access token and return the email subject
	VerifyAccess(ctx context.Context, access string) (string, error)
}
