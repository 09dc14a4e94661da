package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gtnulled/despensa_api/internal/auth"
	"github.com/gtnulled/despensa_api/internal/session"
	"github.com/gtnulled/despensa_api/internal/telemetry"
	"github.com/gtnulled/despensa_api/internal/users"
)

type AuthService interface {
	SignUp(ctx context.Context, input auth.SignUpInput) (*users.User, error)
	Login(ctx context.Context, input auth.LoginInput) (auth.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
}

type AuthHandler struct {
	Auth   AuthService
	Cookie session.CookieConfig
}

type LoginResponse struct {
	SessionExpiresAt string             `json:"session_expires_at"` // RFC3339
	CSRFToken        string             `json:"csrf_token"`
	User             users.UserResponse `json:"user"`
}

// SignUp Auth
// @Summary Register a new account (pending approval)
// @Tags auth
// @Accept json
// @Produce json
// @Param body body SignUpDTO true "account"
// @Success 201 {object} users.UserResponse
// @Failure 400 {string} string
// @Failure 409 {string} string
// @Failure 500 {string} string
// @Router /auth/signup [post]
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	if h.Auth == nil {
		http.Error(w, "auth not configured", http.StatusInternalServerError)
		return
	}

	var req SignUpDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	u, err := h.Auth.SignUp(r.Context(), auth.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	telemetry.LogInfo(r.Context(), "user signed up",
		telemetry.LogString("event", "user.signup"),
		telemetry.LogString("user.id", u.ID),
		telemetry.LogString("user.email", u.Email),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(u.Response())
}

// Login Auth
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginDTO true "credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 403 {string} string
// @Failure 429 {string} string
// @Failure 500 {string} string
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.Auth == nil {
		http.Error(w, "auth not configured", http.StatusInternalServerError)
		return
	}

	var req LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.Auth.Login(r.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		ClientIP: r.RemoteAddr,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	h.Cookie.Write(w, result.Session.ID, result.Session.ExpiresAt)

	telemetry.LogInfo(r.Context(), "user login",
		telemetry.LogString("event", "user.login"),
		telemetry.LogString("user.id", result.User.ID),
		telemetry.LogString("user.email", result.User.Email),
	)

	resp := LoginResponse{
		SessionExpiresAt: result.Session.ExpiresAt.UTC().Format(time.RFC3339),
		CSRFToken:        result.Session.CSRFToken,
		User:             result.User.Response(),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Logout Auth
// @Summary Logout
// @Tags auth
// @Produce json
// @Success 204
// @Failure 500 {string} string
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.Auth == nil {
		http.Error(w, "auth not configured", http.StatusInternalServerError)
		return
	}

	name := h.Cookie.Name
	if name == "" {
		name = session.DefaultCookieName
	}

	cookie, err := r.Cookie(name)
	if err == nil && cookie.Value != "" {
		_ = h.Auth.Logout(r.Context(), cookie.Value)
	}

	h.Cookie.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}
