package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestManagerCreate(t *testing.T) {
	m := &Manager{Store: NewMemoryStore(), TTL: time.Hour}

	sess, err := m.Create(context.Background(), "usr_1")
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if !strings.HasPrefix(sess.ID, "ses_") {
		t.Fatalf("unexpected session id: %s", sess.ID)
	}
	if sess.CSRFToken == "" {
		t.Fatal("csrf token must be set")
	}
	if sess.UserID != "usr_1" {
		t.Fatalf("unexpected user id: %s", sess.UserID)
	}

	got, err := m.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if got.CSRFToken != sess.CSRFToken {
		t.Fatal("csrf token must round-trip through the store")
	}
}

func TestManagerGetUnknown(t *testing.T) {
	m := &Manager{Store: NewMemoryStore(), TTL: time.Hour}

	_, err := m.Get(context.Background(), "ses_missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestManagerMaxAge(t *testing.T) {
	store := NewMemoryStore()
	m := &Manager{Store: store, TTL: time.Hour, MaxAge: 24 * time.Hour}

	old := Session{
		ID:        "ses_old",
		UserID:    "usr_1",
		CreatedAt: time.Now().Add(-48 * time.Hour),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := store.Set(context.Background(), old.ID, old, time.Hour); err != nil {
		t.Fatalf("seed error: %v", err)
	}

	_, err := m.Get(context.Background(), "ses_old")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("sessions past max age must be dropped, got: %v", err)
	}
	if _, err := store.Get(context.Background(), "ses_old"); !errors.Is(err, ErrNotFound) {
		t.Fatal("expired session must be deleted from the store")
	}
}

func TestManagerRefreshOnlyNearExpiry(t *testing.T) {
	store := NewMemoryStore()
	m := &Manager{Store: store, TTL: time.Hour, RefreshBefore: 10 * time.Minute}

	fresh := Session{
		ID:        "ses_fresh",
		UserID:    "usr_1",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	got, refreshed, err := m.Refresh(context.Background(), &fresh)
	if err != nil {
		t.Fatalf("refresh error: %v", err)
	}
	if refreshed {
		t.Fatal("session far from expiry must not refresh")
	}
	if got.ID != "ses_fresh" {
		t.Fatalf("unexpected session: %+v", got)
	}

	near := Session{
		ID:        "ses_near",
		UserID:    "usr_1",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}
	got, refreshed, err = m.Refresh(context.Background(), &near)
	if err != nil {
		t.Fatalf("refresh error: %v", err)
	}
	if !refreshed {
		t.Fatal("session near expiry must refresh")
	}
	if time.Until(got.ExpiresAt) < 50*time.Minute {
		t.Fatalf("refresh must extend expiry, got %s", got.ExpiresAt)
	}
}

func TestManagerDelete(t *testing.T) {
	store := NewMemoryStore()
	m := &Manager{Store: store, TTL: time.Hour}

	sess, err := m.Create(context.Background(), "usr_1")
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if err := m.Delete(context.Background(), sess.ID); err != nil {
		t.Fatalf("delete error: %v", err)
	}
	if _, err := m.Get(context.Background(), sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got: %v", err)
	}
}
