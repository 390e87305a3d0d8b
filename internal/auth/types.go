package auth

import "errors"

// TokenPair is the result of a successful authentication: a short-lived
// access token and the refresh token that replaces the stored session.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrRefreshInvalid     = errors.New("invalid refresh token")
	ErrSessionRevoked     = errors.New("refresh token revoked")
	ErrNoActiveSession    = errors.New("no active session found")
)
