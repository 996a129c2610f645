package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	// Returned on login when the user is unknown or the password does not
	// match. One error for both cases so the response stays uniform.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Any failure to verify a presented token: bad signature, malformed,
	// expired or empty subject. Callers must not tell these apart.
	ErrTokenInvalid = errors.New("token invalid or expired")

	ErrWrongTokenType      = errors.New("not a refresh token")
	ErrMissingRefreshToken = errors.New("refresh token missing")
	ErrUnauthenticated     = errors.New("unauthenticated")

	ErrIdentityTokenInvalid = errors.New("identity token rejected by provider")
	ErrExchangeFailed       = errors.New("authorization code exchange failed")
	ErrMissingEmail         = errors.New("identity provider returned no email")
)
