package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gtnulled/despensa_api/internal/telemetry"
	"github.com/gtnulled/despensa_api/internal/users"
)

type UsersService interface {
	Me(ctx context.Context) (*users.User, error)
	List(ctx context.Context) ([]*users.User, error)
	Approve(ctx context.Context, targetID string) error
	Reject(ctx context.Context, targetID string) error
	ToggleAdmin(ctx context.Context, targetID string) (bool, error)
}

type UsersHandler struct {
	Service UsersService
}

// Me User
// @Summary Get the authenticated user
// @Tags users
// @Produce json
// @Security SessionAuth
// @Success 200 {object} users.UserResponse
// @Failure 401 {string} string
// @Failure 500 {string} string
// @Router /users/me [get]
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.Me(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(u.Response())
}

// List Users
// @Summary List users (admin)
// @Tags users
// @Produce json
// @Security SessionAuth
// @Success 200 {array} users.UserResponse
// @Failure 401 {string} string
// @Failure 403 {string} string
// @Failure 500 {string} string
// @Router /users [get]
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}

	resp := make([]users.UserResponse, 0, len(list))
	for _, u := range list {
		resp = append(resp, u.Response())
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Approve User
// @Summary Approve a pending account (admin)
// @Tags users
// @Produce json
// @Security SessionAuth
// @Param id path string true "user id"
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 204
// @Failure 401 {string} string
// @Failure 403 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /users/{id}/approve [post]
func (h *UsersHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	if err := h.Service.Approve(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}

	telemetry.LogInfo(r.Context(), "user approved",
		telemetry.LogString("event", "user.approved"),
		telemetry.LogString("user.id", id),
	)

	w.WriteHeader(http.StatusNoContent)
}

// ToggleAdmin User
// @Summary Toggle the admin role of a user (admin)
// @Tags users
// @Produce json
// @Security SessionAuth
// @Param id path string true "user id"
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 200 {object} map[string]bool
// @Failure 401 {string} string
// @Failure 403 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /users/{id}/toggle-admin [post]
func (h *UsersHandler) ToggleAdmin(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	isAdmin, err := h.Service.ToggleAdmin(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}

	telemetry.LogInfo(r.Context(), "user admin role toggled",
		telemetry.LogString("event", "user.admin_toggled"),
		telemetry.LogString("user.id", id),
		telemetry.LogBool("user.is_super_admin", isAdmin),
	)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"is_super_admin": isAdmin})
}

// Reject User
// @Summary Reject and delete an account (admin)
// @Tags users
// @Produce json
// @Security SessionAuth
// @Param id path string true "user id"
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 204
// @Failure 401 {string} string
// @Failure 403 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /users/{id} [delete]
func (h *UsersHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	if err := h.Service.Reject(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}

	telemetry.LogInfo(r.Context(), "user rejected",
		telemetry.LogString("event", "user.rejected"),
		telemetry.LogString("user.id", id),
	)

	w.WriteHeader(http.StatusNoContent)
}
