package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nerrad567/fleetgate/internal/auth"
	"github.com/nerrad567/fleetgate/internal/role"
	"github.com/nerrad567/fleetgate/internal/user"
)

// refreshCookieName is the cookie carrying the refresh token.
const refreshCookieName = "refreshToken"

type registerRequest struct {
	Role     role.Name `json:"role"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
	Number   string    `json:"number"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Number   string `json:"number"`
}

type logoutRequest struct {
	UserID string `json:"userId"`
}

// tokenResponse is the body for register, login, and refresh. The
// refresh token travels only in the cookie, never in the body.
type tokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// handleRegister creates an account under the requested role and opens
// a session for it.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Role == "" {
		req.Role = role.User
	}
	if !role.IsValid(req.Role) {
		writeValidationError(w, "role must be one of ADMIN, USER, MASTER")
		return
	}
	if msg, ok := validateCredentials(req.Email, req.Number, req.Password); !ok {
		writeValidationError(w, msg)
		return
	}

	u, pair, err := s.auth.Register(r.Context(), req.Role, req.Email, req.Number, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailOrNumberInUse):
			writeConflict(w, "email or phone number already in use")
		case errors.Is(err, role.ErrNotFound):
			writeValidationError(w, "unknown role")
		default:
			s.logger.Error("register failed", "error", err)
			writeInternalError(w, "failed to register")
		}
		return
	}

	s.auditLog("register", "user", u.ID, u.ID, map[string]any{"role": u.Role})

	s.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusCreated, tokenResponse{AccessToken: pair.AccessToken})
}

// handleLogin authenticates the (email, number, password) triple.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Email == "" || req.Number == "" || req.Password == "" {
		writeValidationError(w, "email, number, and password are required")
		return
	}

	u, pair, err := s.auth.Login(r.Context(), req.Email, req.Number, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeUnauthorized(w, "invalid credentials")
			return
		}
		s.logger.Error("login failed", "error", err)
		writeInternalError(w, "failed to log in")
		return
	}

	s.auditLog("login", "session", "", u.ID, nil)

	s.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken})
}

// handleRefresh rotates the session identified by the refresh cookie.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		writeUnauthorized(w, "invalid refresh token")
		return
	}

	pair, err := s.auth.Refresh(r.Context(), cookie.Value)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrRefreshInvalid):
			writeUnauthorized(w, "invalid refresh token")
		case errors.Is(err, auth.ErrSessionRevoked):
			s.auditLog("refresh_denied", "session", "", "", nil)
			writeUnauthorized(w, "refresh token revoked")
		default:
			s.logger.Error("refresh failed", "error", err)
			writeInternalError(w, "failed to refresh session")
		}
		return
	}

	s.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken})
}

// handleLogout deletes the stored session for the given subject. The
// cookie is cleared whether or not a session existed.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		writeValidationError(w, "userId is required")
		return
	}

	s.clearRefreshCookie(w)

	if err := s.auth.Logout(r.Context(), req.UserID); err != nil {
		if errors.Is(err, auth.ErrNoActiveSession) {
			writeUnauthorized(w, "no active session found")
			return
		}
		s.logger.Error("logout failed", "error", err)
		writeInternalError(w, "failed to log out")
		return
	}

	claims := claimsFromContext(r.Context())
	s.auditLog("logout", "session", "", claims.Subject, map[string]any{"subject": req.UserID})

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// validateCredentials checks the shared email/number/password rules.
func validateCredentials(email, number, password string) (string, bool) {
	switch {
	case !isValidEmail(email):
		return "email is invalid", false
	case !isValidNumber(number):
		return "number must be 9 to 11 digits", false
	case !isValidPassword(password):
		return "password must be 8 to 50 characters", false
	}
	return "", true
}

// setRefreshCookie writes the refresh-token cookie. Secure and SameSite
// track the environment: browsers on localhost need SameSite=None with
// Secure off, production gets Lax over HTTPS.
func (s *Server) setRefreshCookie(w http.ResponseWriter, token string) {
	sameSite := http.SameSiteLaxMode
	if s.cfg.IsDevelopment() {
		sameSite = http.SameSiteNoneMode
	}

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		Domain:   s.cfg.Security.Cookie.Domain,
		Expires:  time.Now().Add(s.cfg.RefreshTokenTTL()),
		HttpOnly: true,
		Secure:   !s.cfg.IsDevelopment(),
		SameSite: sameSite,
	})
}

// clearRefreshCookie expires the refresh-token cookie immediately.
func (s *Server) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		Domain:   s.cfg.Security.Cookie.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !s.cfg.IsDevelopment(),
	})
}
