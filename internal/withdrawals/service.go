package withdrawals

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/gtnulled/despensa_api/internal/apperrors"
	"github.com/gtnulled/despensa_api/internal/identity"
)

type Store interface {
	Withdraw(ctx context.Context, w *Withdrawal) error
	List(ctx context.Context, userID string) ([]*Detail, error)
}

// ItemListInvalidator drops the cached item listing after a stock
// mutation. Satisfied by items.RedisCache.
type ItemListInvalidator interface {
	InvalidateList(ctx context.Context) error
}

type Service struct {
	Store       Store
	ItemCache   ItemListInvalidator
	IDGenerator func() string
}

// Withdraw records a stock withdrawal for the calling user. Requests
// exceeding the current stock are rejected without writing anything.
func (s *Service) Withdraw(ctx context.Context, itemID string, quantity float64) (*Withdrawal, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "withdrawals store not configured")
	}
	userID, ok := identity.UserID(ctx)
	if !ok || strings.TrimSpace(userID) == "" {
		return nil, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(itemID) == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "item id is required")
	}
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) || quantity <= 0 {
		return nil, apperrors.New(apperrors.KindInvalidInput, "invalid quantity")
	}

	idGen := s.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}

	w := &Withdrawal{
		ID:       idGen(),
		ItemID:   itemID,
		UserID:   userID,
		Quantity: quantity,
	}

	if err := s.Store.Withdraw(ctx, w); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "item not found")
		}
		if errors.Is(err, ErrInsufficientStock) {
			return nil, apperrors.New(apperrors.KindConflict, "insufficient stock")
		}
		return nil, apperrors.New(apperrors.KindInternal, "failed to record withdrawal")
	}

	if s.ItemCache != nil {
		_ = s.ItemCache.InvalidateList(ctx)
	}
	return w, nil
}

// History returns the caller's withdrawals, or everyone's when the
// caller is a super admin.
func (s *Service) History(ctx context.Context) ([]*Detail, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "withdrawals store not configured")
	}
	userID, ok := identity.UserID(ctx)
	if !ok || strings.TrimSpace(userID) == "" {
		return nil, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}

	filter := userID
	if identity.IsSuperAdmin(ctx) {
		filter = ""
	}

	list, err := s.Store.List(ctx, filter)
	if err != nil {
		return nil, apperrors.New(apperrors.KindInternal, "failed to list withdrawals")
	}
	return list, nil
}
