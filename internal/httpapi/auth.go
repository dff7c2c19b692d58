package httpapi

import (
	"errors"
	"net/http"

	"github.com/copperline/streamgate/internal/service"
	"github.com/copperline/streamgate/pkg/httpx"
	"github.com/copperline/streamgate/pkg/slogx"
)

type AuthHandler struct {
	Auth *service.AuthService
}

type registerRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	InviteCode string `json:"invite_code"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type userResponse struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

type sessionResponse struct {
	User         userResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
}

// HandleRegister creates an account gated by an invite code and returns the
// new user with a signed token pair.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	u, pair, err := h.Auth.Register(ctx, req.Email, req.Password, req.InviteCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRegistration):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
				"Registration requires a valid email, a password of at least 8 characters and an invite code")
		case errors.Is(err, service.ErrInviteNotFound):
			httpx.WriteError(w, http.StatusBadRequest, "invite_not_found", "Unknown invite code")
		case errors.Is(err, service.ErrInviteExpired):
			httpx.WriteError(w, http.StatusBadRequest, "invite_expired", "This invite code has expired")
		case errors.Is(err, service.ErrInviteExhausted):
			httpx.WriteError(w, http.StatusBadRequest, "invite_exhausted", "This invite code has no uses left")
		case errors.Is(err, service.ErrEmailAlreadyRegistered):
			httpx.WriteError(w, http.StatusConflict, "email_already_registered", "An account with this email already exists")
		default:
			log.Error("registration failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to register")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, sessionResponse{
		User:         userResponse{ID: u.ID, Email: u.Email, Roles: u.Roles},
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
	})
}

// HandleLogin verifies credentials and returns a token pair. Failures are a
// single generic 401 so the response never confirms whether an email exists.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	pair, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
			return
		}
		log.Error("login failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to log in")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}

// HandleRefresh rotates a refresh token. Every rotation failure is the same
// 401 so callers cannot probe why a token was rejected.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req refreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	pair, err := h.Auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Refresh token rejected")
			return
		}
		log.Error("refresh failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to refresh")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}

// HandleLogout revokes the presented refresh token. Idempotent: an invalid or
// already-revoked token still yields 204.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req refreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if err := h.Auth.Logout(ctx, req.RefreshToken); err != nil {
		log.Error("logout failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to log out")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the account behind the verified access token.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	u, err := h.Auth.Me(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Account no longer exists")
			return
		}
		log.Error("me lookup failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to load account")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, userResponse{ID: u.ID, Email: u.Email, Roles: u.Roles})
}
