package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nerrad567/fleetgate/internal/role"
)

// CustomClaims extends JWT standard claims with the subject's role.
type CustomClaims struct {
	jwt.RegisteredClaims
	Role role.Name `json:"role"`
}

// TokenIssuer signs and verifies the access/refresh token pair.
// The two token kinds use distinct secrets and lifetimes, so a refresh
// token can never pass access-token verification or vice versa.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenIssuer creates a token issuer with the given secrets and TTLs.
// Config validation guarantees the secrets are distinct and non-empty.
func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// RefreshTTL returns the refresh token lifetime. The session store uses
// it as the entry TTL so the stored copy expires with the token itself.
func (ti *TokenIssuer) RefreshTTL() time.Duration {
	return ti.refreshTTL
}

// SignAccess creates a signed access token carrying the subject ID and role.
func (ti *TokenIssuer) SignAccess(subject string, roleName role.Name) (string, error) {
	return sign(subject, roleName, ti.accessSecret, ti.accessTTL)
}

// SignRefresh creates a signed refresh token carrying the subject ID and role.
func (ti *TokenIssuer) SignRefresh(subject string, roleName role.Name) (string, error) {
	return sign(subject, roleName, ti.refreshSecret, ti.refreshTTL)
}

// VerifyAccess validates an access token and returns its claims.
func (ti *TokenIssuer) VerifyAccess(tokenString string) (*CustomClaims, error) {
	return verify(tokenString, ti.accessSecret)
}

// VerifyRefresh validates a refresh token and returns its claims.
func (ti *TokenIssuer) VerifyRefresh(tokenString string) (*CustomClaims, error) {
	return verify(tokenString, ti.refreshSecret)
}

func sign(subject string, roleName role.Name, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Role: roleName,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// verify checks the signature, expiry, and required fields. All failure
// modes collapse into ErrTokenInvalid so callers can't distinguish a
// forged token from an expired one.
func verify(tokenString string, secret []byte) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	if claims.Role == "" {
		return nil, fmt.Errorf("%w: missing role", ErrTokenInvalid)
	}

	return claims, nil
}
