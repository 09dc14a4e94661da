package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gtnulled/despensa_api/internal/items"
	"github.com/gtnulled/despensa_api/internal/telemetry"
	"github.com/gtnulled/despensa_api/internal/withdrawals"
)

type ItemsService interface {
	List(ctx context.Context) ([]*items.Item, error)
	Create(ctx context.Context, req items.CreateItemRequest) (*items.Item, error)
	RequestRemoval(ctx context.Context, itemID string) error
	Remove(ctx context.Context, itemID string) error
}

type WithdrawService interface {
	Withdraw(ctx context.Context, itemID string, quantity float64) (*withdrawals.Withdrawal, error)
}

type ItemsHandler struct {
	Service     ItemsService
	Withdrawals WithdrawService
}

// List Items
// @Summary List pantry items
// @Tags items
// @Produce json
// @Security SessionAuth
// @Success 200 {array} items.Item
// @Failure 401 {string} string
// @Failure 500 {string} string
// @Router /items [get]
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// Create Item
// @Summary Create a pantry item
// @Tags items
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param body body ItemCreateDTO true "item"
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 201 {object} items.Item
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 500 {string} string
// @Router /items [post]
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ItemCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.Service.Create(r.Context(), items.CreateItemRequest{
		Name:     req.Name,
		Quantity: req.Quantity,
		Unit:     req.Unit,
		Category: req.Category,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	telemetry.LogInfo(r.Context(), "item created",
		telemetry.LogString("event", "item.created"),
		telemetry.LogString("item.id", item.ID),
		telemetry.LogString("item.name", item.Name),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(item)
}

// RequestRemoval Item
// @Summary Flag an item for removal
// @Tags items
// @Produce json
// @Security SessionAuth
// @Param id path string true "item id"
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 204
// @Failure 401 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /items/{id}/request-removal [post]
func (h *ItemsHandler) RequestRemoval(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	if err := h.Service.RequestRemoval(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}

	telemetry.LogInfo(r.Context(), "item removal requested",
		telemetry.LogString("event", "item.removal_requested"),
		telemetry.LogString("item.id", id),
	)

	w.WriteHeader(http.StatusNoContent)
}

// Delete Item
// @Summary Delete an item (admin)
// @Tags items
// @Produce json
// @Security SessionAuth
// @Param id path string true "item id"
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 204
// @Failure 401 {string} string
// @Failure 403 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /items/{id} [delete]
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	if err := h.Service.Remove(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}

	telemetry.LogInfo(r.Context(), "item deleted",
		telemetry.LogString("event", "item.deleted"),
		telemetry.LogString("item.id", id),
	)

	w.WriteHeader(http.StatusNoContent)
}

// Withdraw Item
// @Summary Withdraw stock from an item
// @Tags items
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param id path string true "item id"
// @Param body body WithdrawDTO true "withdrawal"
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 201 {object} withdrawals.Withdrawal
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 404 {string} string
// @Failure 409 {string} string
// @Failure 500 {string} string
// @Router /items/{id}/withdraw [post]
func (h *ItemsHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	var req WithdrawDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	wd, err := h.Withdrawals.Withdraw(r.Context(), id, req.Quantity)
	if err != nil {
		writeAppError(w, err)
		return
	}

	telemetry.LogInfo(r.Context(), "stock withdrawn",
		telemetry.LogString("event", "item.withdrawn"),
		telemetry.LogString("item.id", id),
		telemetry.LogFloat64("withdrawal.quantity", wd.Quantity),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(wd)
}
