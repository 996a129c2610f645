package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/akondratenko/tokengate/internal/apperrors"
	"github.com/akondratenko/tokengate/internal/handlers/render"
	"github.com/akondratenko/tokengate/internal/handlers/subjectctx"
	"github.com/akondratenko/tokengate/internal/logger"
)

// Login with form credentials, respond with a token pair.
// The refresh token additionally travels in an HttpOnly cookie.
func handleLogin(session sessionService, l logger.Logger) http.Handler {
	type response struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			render.ServiceError(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		username := r.PostFormValue("username")
		password := r.PostFormValue("password")

		pair, err := session.Login(r.Context(), username, password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInvalidCredentials):
				render.ServiceError(w, "Invalid credentials", http.StatusBadRequest)
			default:
				l.Error("Login failed", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		session.SetRefreshCookie(w, pair.Refresh)
		render.JSON(w, response{
			AccessToken:  pair.Access.Value,
			RefreshToken: pair.Refresh.Value,
			TokenType:    "bearer",
		})
	})
}

// Exchange the refresh cookie for a new access token.
// The refresh token itself stays untouched.
func handleRefresh(session sessionService, l logger.Logger) http.Handler {
	type response struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, err := session.RefreshFromRequest(r)
		if err != nil {
			render.ServiceError(w, "Missing refresh token", http.StatusUnauthorized)
			return
		}

		access, err := session.Refresh(r.Context(), refresh)
		if err != nil {
			// Bad signature, expired and wrong type all collapse here
			l.Debug("Refresh rejected", "error", err)
			render.ServiceError(w, "Token invalid or expired", http.StatusUnauthorized)
			return
		}

		render.JSON(w, response{
			AccessToken: access.Value,
			TokenType:   "bearer",
		})
	})
}

// Logout clears the refresh cookie and nothing else: tokens are stateless,
// there is no server side session to destroy. Never fails.
func handleLogout(session sessionService) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session.ClearRefreshCookie(w)
		render.JSON(w, response{Message: "Logged out successfully"})
	})
}

// Demo resource behind the credential flow auth middleware
func handleProtected() http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, _ := subjectctx.FromContext(r.Context())
		render.JSON(w, response{
			Message: fmt.Sprintf("Hello, %s! You are authenticated.", subject),
		})
	})
}

// Plain hello on the root path
func handleRoot() http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, response{Message: "Hello from tokengate"})
	})
}
