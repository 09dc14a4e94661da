package items

import (
	"fmt"
	"time"
)

type Unit string

const (
	UnitKilogram Unit = "kg"
	UnitUnidade  Unit = "unidade"
)

func (u Unit) Valid() bool {
	switch u {
	case UnitKilogram, UnitUnidade:
		return true
	default:
		return false
	}
}

func ParseUnit(s string) (Unit, error) {
	u := Unit(s)
	if !u.Valid() {
		return "", fmt.Errorf("invalid unit: %q", s)
	}
	return u, nil
}

// Item is a stock entry in the pantry. Quantity is the only mutable
// stock signal; removal_requested is a soft-delete flag awaiting a
// super admin decision.
type Item struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Quantity         float64    `json:"quantity"`
	Unit             Unit       `json:"unit"`
	Category         string     `json:"category,omitempty"`
	CreatedBy        string     `json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
	RemovalRequested bool       `json:"removal_requested"`
	RequestedBy      string     `json:"requested_by,omitempty"`
	RequestedAt      *time.Time `json:"requested_at,omitempty"`
}

type CreateItemRequest struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     Unit    `json:"unit"`
	Category string  `json:"category"`
}
