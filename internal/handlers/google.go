package handlers

import (
	"errors"
	"net/http"

	"github.com/akondratenko/tokengate/internal/apperrors"
	"github.com/akondratenko/tokengate/internal/handlers/render"
	"github.com/akondratenko/tokengate/internal/handlers/subjectctx"
	"github.com/akondratenko/tokengate/internal/logger"
)

type profileResponse struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// Federated login with an id token the frontend already holds
func handleGoogleLogin(google googleService, l logger.Logger) http.Handler {
	type request struct {
		IDToken string `json:"id_token" validate:"required"`
	}
	type response struct {
		AccessToken string          `json:"access_token"`
		TokenType   string          `json:"token_type"`
		User        profileResponse `json:"user"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		access, profile, err := google.LoginWithIDToken(r.Context(), data.IDToken)
		if err != nil {
			renderGoogleError(w, l, err)
			return
		}

		render.JSON(w, response{
			AccessToken: access.Value,
			TokenType:   "bearer",
			User: profileResponse{
				Name:    profile.Name,
				Email:   profile.Email,
				Picture: profile.Picture,
			},
		})
	})
}

// Federated login with an authorization code, the backend does the exchange
func handleGoogleCodeLogin(google googleService, l logger.Logger) http.Handler {
	type request struct {
		Code        string `json:"code" validate:"required"`
		RedirectURI string `json:"redirect_uri" validate:"required"`
	}
	type response struct {
		AccessToken       string          `json:"access_token"`
		TokenType         string          `json:"token_type"`
		User              profileResponse `json:"user"`
		GoogleAccessToken string          `json:"google_access_token"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		access, profile, googleAccess, err := google.LoginWithCode(r.Context(), data.Code, data.RedirectURI)
		if err != nil {
			renderGoogleError(w, l, err)
			return
		}

		render.JSON(w, response{
			AccessToken: access.Value,
			TokenType:   "bearer",
			User: profileResponse{
				Name:    profile.Name,
				Email:   profile.Email,
				Picture: profile.Picture,
			},
			GoogleAccessToken: googleAccess,
		})
	})
}

// Identity behind the federated auth middleware
func handleUserMe() http.Handler {
	type response struct {
		Msg       string `json:"msg"`
		UserEmail string `json:"user_email"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, _ := subjectctx.FromContext(r.Context())
		render.JSON(w, response{
			Msg:       "JWT verified successfully",
			UserEmail: email,
		})
	})
}

func renderGoogleError(w http.ResponseWriter, l logger.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrMissingEmail):
		render.ServiceError(w, "Google account exposes no email", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrIdentityTokenInvalid):
		render.ServiceError(w, "Invalid Google id token", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrExchangeFailed):
		render.ServiceError(w, "Authorization code exchange failed", http.StatusBadRequest)
	default:
		l.Error("Federated login failed", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
