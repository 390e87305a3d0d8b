package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nerrad567/fleetgate/internal/role"
	"github.com/nerrad567/fleetgate/internal/user"
)

// Service implements the authentication flows: register, login, refresh,
// logout. It deals purely in token strings; cookie handling belongs to
// the HTTP layer.
type Service struct {
	users    user.Repository
	roles    role.Repository
	issuer   *TokenIssuer
	sessions *SessionStore
	logger   *slog.Logger
}

// NewService creates an authentication service.
func NewService(users user.Repository, roles role.Repository, issuer *TokenIssuer, sessions *SessionStore, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		roles:    roles,
		issuer:   issuer,
		sessions: sessions,
		logger:   logger,
	}
}

// Register creates an account under the given role and opens a session
// for it. Fails with user.ErrEmailOrNumberInUse when either identifier
// is taken, and with role.ErrNotFound for an unknown role name.
func (s *Service) Register(ctx context.Context, roleName role.Name, email, number, password string) (*user.User, *TokenPair, error) {
	taken, err := s.users.ExistsByEmailOrNumber(ctx, email, number)
	if err != nil {
		return nil, nil, fmt.Errorf("checking existing account: %w", err)
	}
	if taken {
		return nil, nil, user.ErrEmailOrNumberInUse
	}

	userRole, err := s.roles.GetByName(ctx, roleName)
	if err != nil {
		return nil, nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &user.User{
		Email:        email,
		Number:       number,
		PasswordHash: hash,
		RoleID:       userRole.ID,
		Role:         userRole.Name,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, nil, err
	}

	pair, err := s.issueSession(ctx, u.ID, u.Role)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("account registered", "user_id", u.ID)
	return u, pair, nil
}

// Login authenticates by the exact (email, number) pair plus password.
// Every failure mode collapses into ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, number, password string) (*user.User, *TokenPair, error) {
	u, err := s.users.GetByEmailAndNumber(ctx, email, number)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("looking up account: %w", err)
	}

	ok, err := VerifyPassword(password, u.PasswordHash)
	if err != nil || !ok {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issueSession(ctx, u.ID, u.Role)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("login", "user_id", u.ID)
	return u, pair, nil
}

// Refresh rotates a session: the presented refresh token must verify
// and match the stored copy byte for byte, after which a fresh pair is
// issued and the stored token replaced. Previously issued access tokens
// remain valid until their own expiry.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRefreshInvalid, err)
	}

	stored, found, err := s.sessions.Get(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if !found || subtle.ConstantTimeCompare([]byte(stored), []byte(refreshToken)) != 1 {
		return nil, ErrSessionRevoked
	}

	pair, err := s.issueSession(ctx, claims.Subject, claims.Role)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("session refreshed", "user_id", claims.Subject)
	return pair, nil
}

// Logout deletes the subject's stored session. Returns
// ErrNoActiveSession when there was nothing to delete.
func (s *Service) Logout(ctx context.Context, subject string) error {
	existed, err := s.sessions.Delete(ctx, subject)
	if err != nil {
		return err
	}
	if !existed {
		return ErrNoActiveSession
	}

	s.logger.Info("logout", "user_id", subject)
	return nil
}

// VerifyAccess exposes access-token verification for the HTTP middleware.
func (s *Service) VerifyAccess(tokenString string) (*CustomClaims, error) {
	return s.issuer.VerifyAccess(tokenString)
}

// issueSession signs a fresh token pair and stores the refresh token,
// replacing any previous session for the subject.
func (s *Service) issueSession(ctx context.Context, subject string, roleName role.Name) (*TokenPair, error) {
	access, err := s.issuer.SignAccess(subject, roleName)
	if err != nil {
		return nil, err
	}

	refresh, err := s.issuer.SignRefresh(subject, roleName)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Save(ctx, subject, refresh); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
