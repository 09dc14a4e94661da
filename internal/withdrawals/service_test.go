package withdrawals

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/gtnulled/despensa_api/internal/apperrors"
	"github.com/gtnulled/despensa_api/internal/identity"
)

type storeStub struct {
	withdrawFn func(ctx context.Context, w *Withdrawal) error
	listFn     func(ctx context.Context, userID string) ([]*Detail, error)
}

func (s *storeStub) Withdraw(ctx context.Context, w *Withdrawal) error {
	if s.withdrawFn != nil {
		return s.withdrawFn(ctx, w)
	}
	return nil
}

func (s *storeStub) List(ctx context.Context, userID string) ([]*Detail, error) {
	if s.listFn != nil {
		return s.listFn(ctx, userID)
	}
	return nil, nil
}

type invalidatorStub struct {
	calls int
}

func (i *invalidatorStub) InvalidateList(ctx context.Context) error {
	i.calls++
	return nil
}

func memberCtx(id string) context.Context {
	return identity.WithUser(context.Background(), id, false)
}

func adminCtx(id string) context.Context {
	return identity.WithUser(context.Background(), id, true)
}

func TestServiceWithdraw(t *testing.T) {
	store := &storeStub{}
	var got *Withdrawal
	store.withdrawFn = func(ctx context.Context, w *Withdrawal) error {
		got = w
		return nil
	}
	cache := &invalidatorStub{}

	svc := &Service{Store: store, ItemCache: cache, IDGenerator: func() string { return "wdr_test" }}

	w, err := svc.Withdraw(memberCtx("usr_1"), "itm_1", 2.5)
	if err != nil {
		t.Fatalf("withdraw error: %v", err)
	}
	if got == nil {
		t.Fatal("withdrawal not persisted")
	}
	if w.UserID != "usr_1" || w.ItemID != "itm_1" || w.Quantity != 2.5 {
		t.Fatalf("unexpected withdrawal: %+v", w)
	}
	if cache.calls != 1 {
		t.Fatalf("expected one cache invalidation, got %d", cache.calls)
	}
}

func TestServiceWithdrawInvalidQuantity(t *testing.T) {
	svc := &Service{Store: &storeStub{}}

	for _, q := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := svc.Withdraw(memberCtx("usr_1"), "itm_1", q)
		assertKind(t, err, apperrors.KindInvalidInput)
	}
}

func TestServiceWithdrawInsufficientStock(t *testing.T) {
	store := &storeStub{}
	store.withdrawFn = func(ctx context.Context, w *Withdrawal) error {
		return ErrInsufficientStock
	}
	cache := &invalidatorStub{}

	svc := &Service{Store: store, ItemCache: cache}

	_, err := svc.Withdraw(memberCtx("usr_1"), "itm_1", 100)
	assertKind(t, err, apperrors.KindConflict)
	if cache.calls != 0 {
		t.Fatal("cache must not be touched on failure")
	}
}

func TestServiceWithdrawItemNotFound(t *testing.T) {
	store := &storeStub{}
	store.withdrawFn = func(ctx context.Context, w *Withdrawal) error {
		return ErrItemNotFound
	}

	svc := &Service{Store: store}

	_, err := svc.Withdraw(memberCtx("usr_1"), "itm_missing", 1)
	assertKind(t, err, apperrors.KindNotFound)
}

func TestServiceWithdrawUnauthorized(t *testing.T) {
	svc := &Service{Store: &storeStub{}}

	_, err := svc.Withdraw(context.Background(), "itm_1", 1)
	assertKind(t, err, apperrors.KindUnauthorized)
}

func TestServiceHistoryScopesToCaller(t *testing.T) {
	store := &storeStub{}
	var gotFilter string
	store.listFn = func(ctx context.Context, userID string) ([]*Detail, error) {
		gotFilter = userID
		return nil, nil
	}

	svc := &Service{Store: store}

	if _, err := svc.History(memberCtx("usr_1")); err != nil {
		t.Fatalf("history error: %v", err)
	}
	if gotFilter != "usr_1" {
		t.Fatalf("member history must be scoped, got filter %q", gotFilter)
	}

	if _, err := svc.History(adminCtx("usr_admin")); err != nil {
		t.Fatalf("history error: %v", err)
	}
	if gotFilter != "" {
		t.Fatalf("admin history must see everyone, got filter %q", gotFilter)
	}
}

func assertKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error kind %s", kind)
	}
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected app error, got: %v", err)
	}
	if appErr.Kind != kind {
		t.Fatalf("unexpected kind: %s", appErr.Kind)
	}
}
