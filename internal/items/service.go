package items

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gtnulled/despensa_api/internal/apperrors"
	"github.com/gtnulled/despensa_api/internal/identity"
)

type Store interface {
	Create(ctx context.Context, it *Item) error
	GetByID(ctx context.Context, id string) (*Item, error)
	List(ctx context.Context) ([]*Item, error)
	RequestRemoval(ctx context.Context, id, requesterID string, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
}

type Service struct {
	Store       Store
	Cache       Cache
	CacheTTL    time.Duration
	IDGenerator func() string
	Now         func() time.Time
}

func (s *Service) List(ctx context.Context) ([]*Item, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "items store not configured")
	}
	if _, ok := identity.UserID(ctx); !ok {
		return nil, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}

	if s.Cache != nil {
		if cached, ok, err := s.Cache.GetList(ctx); err == nil && ok {
			return cached, nil
		}
	}

	list, err := s.Store.List(ctx)
	if err != nil {
		return nil, apperrors.New(apperrors.KindInternal, "failed to list items")
	}

	if s.Cache != nil && s.CacheTTL > 0 {
		_ = s.Cache.SetList(ctx, list, s.CacheTTL)
	}
	return list, nil
}

func (s *Service) Create(ctx context.Context, req CreateItemRequest) (*Item, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "items store not configured")
	}
	creatorID, ok := identity.UserID(ctx)
	if !ok || strings.TrimSpace(creatorID) == "" {
		return nil, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "name is required")
	}
	if math.IsNaN(req.Quantity) || math.IsInf(req.Quantity, 0) || req.Quantity < 0 {
		return nil, apperrors.New(apperrors.KindInvalidInput, "invalid quantity")
	}
	if !req.Unit.Valid() {
		return nil, apperrors.New(apperrors.KindInvalidInput, "invalid unit")
	}

	idGen := s.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}

	it := &Item{
		ID:        idGen(),
		Name:      name,
		Quantity:  req.Quantity,
		Unit:      req.Unit,
		Category:  strings.TrimSpace(req.Category),
		CreatedBy: creatorID,
	}

	if err := s.Store.Create(ctx, it); err != nil {
		return nil, apperrors.New(apperrors.KindInternal, "failed to create item")
	}

	s.invalidate(ctx)
	return it, nil
}

// RequestRemoval flags the item for deletion by a super admin. Flagging
// an already-flagged item is a no-op.
func (s *Service) RequestRemoval(ctx context.Context, itemID string) error {
	if s.Store == nil {
		return apperrors.New(apperrors.KindInternal, "items store not configured")
	}
	requesterID, ok := identity.UserID(ctx)
	if !ok || strings.TrimSpace(requesterID) == "" {
		return apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(itemID) == "" {
		return apperrors.New(apperrors.KindInvalidInput, "id is required")
	}

	now := s.Now
	if now == nil {
		now = time.Now
	}

	flagged, err := s.Store.RequestRemoval(ctx, itemID, requesterID, now().UTC())
	if err != nil {
		return apperrors.New(apperrors.KindInternal, "failed to request removal")
	}
	if !flagged {
		// Distinguish "already flagged" from "no such item".
		if _, err := s.Store.GetByID(ctx, itemID); err != nil {
			if IsNotFound(err) {
				return apperrors.New(apperrors.KindNotFound, "item not found")
			}
			return apperrors.New(apperrors.KindInternal, "failed to request removal")
		}
		return nil
	}

	s.invalidate(ctx)
	return nil
}

// Remove deletes the item outright. Super admin only, whether or not a
// removal was requested first.
func (s *Service) Remove(ctx context.Context, itemID string) error {
	if s.Store == nil {
		return apperrors.New(apperrors.KindInternal, "items store not configured")
	}
	if _, ok := identity.UserID(ctx); !ok {
		return apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}
	if !identity.IsSuperAdmin(ctx) {
		return apperrors.New(apperrors.KindForbidden, "forbidden")
	}
	if strings.TrimSpace(itemID) == "" {
		return apperrors.New(apperrors.KindInvalidInput, "id is required")
	}

	if err := s.Store.Delete(ctx, itemID); err != nil {
		if IsNotFound(err) {
			return apperrors.New(apperrors.KindNotFound, "item not found")
		}
		return apperrors.New(apperrors.KindInternal, "failed to delete item")
	}

	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.Cache != nil {
		_ = s.Cache.InvalidateList(ctx)
	}
}
