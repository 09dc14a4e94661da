package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gtnulled/despensa_api/internal/withdrawals"
)

type WithdrawalsService interface {
	History(ctx context.Context) ([]*withdrawals.Detail, error)
}

type WithdrawalsHandler struct {
	Service WithdrawalsService
}

// List Withdrawals
// @Summary List withdrawals (own history; admins see everyone)
// @Tags withdrawals
// @Produce json
// @Security SessionAuth
// @Success 200 {array} withdrawals.Detail
// @Failure 401 {string} string
// @Failure 500 {string} string
// @Router /withdrawals [get]
func (h *WithdrawalsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.History(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}
