package withdrawals

import (
	"time"

	"github.com/gtnulled/despensa_api/internal/items"
)

// Withdrawal is an append-only log entry: a quantity removed from an
// item by a user at a point in time. Rows are never updated or deleted.
type Withdrawal struct {
	ID          string    `json:"id"`
	ItemID      string    `json:"item_id"`
	UserID      string    `json:"user_id"`
	Quantity    float64   `json:"quantity"`
	WithdrawnAt time.Time `json:"withdrawn_at"`
}

// Detail joins the log entry with the item and user names for history
// and report screens. Items may have been deleted since the withdrawal,
// so the joined fields can be empty.
type Detail struct {
	Withdrawal
	ItemName     string     `json:"item_name"`
	ItemUnit     items.Unit `json:"item_unit"`
	UserFullName string     `json:"user_full_name"`
}
