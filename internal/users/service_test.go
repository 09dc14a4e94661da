package users

import (
	"context"
	"errors"
	"testing"

	"github.com/gtnulled/despensa_api/internal/apperrors"
	"github.com/gtnulled/despensa_api/internal/identity"
	"github.com/jackc/pgx/v5/pgconn"
)

type storeStub struct {
	createFn        func(ctx context.Context, u *User) error
	getByIDFn       func(ctx context.Context, id string) (*User, error)
	getByEmailFn    func(ctx context.Context, email string) (User, error)
	listFn          func(ctx context.Context) ([]*User, error)
	setApprovedFn   func(ctx context.Context, id string, approved bool) error
	setSuperAdminFn func(ctx context.Context, id string, superAdmin bool) error
	deleteFn        func(ctx context.Context, id string) error
}

func (s *storeStub) Create(ctx context.Context, u *User) error {
	if s.createFn != nil {
		return s.createFn(ctx, u)
	}
	return nil
}

func (s *storeStub) GetByID(ctx context.Context, id string) (*User, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return nil, ErrNotFound
}

func (s *storeStub) GetByEmail(ctx context.Context, email string) (User, error) {
	if s.getByEmailFn != nil {
		return s.getByEmailFn(ctx, email)
	}
	return User{}, ErrNotFound
}

func (s *storeStub) List(ctx context.Context) ([]*User, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *storeStub) SetApproved(ctx context.Context, id string, approved bool) error {
	if s.setApprovedFn != nil {
		return s.setApprovedFn(ctx, id, approved)
	}
	return nil
}

func (s *storeStub) SetSuperAdmin(ctx context.Context, id string, superAdmin bool) error {
	if s.setSuperAdminFn != nil {
		return s.setSuperAdminFn(ctx, id, superAdmin)
	}
	return nil
}

func (s *storeStub) Delete(ctx context.Context, id string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func plainHasher(plain string) (string, error) { return "hashed:" + plain, nil }

func adminCtx(id string) context.Context {
	return identity.WithUser(context.Background(), id, true)
}

func memberCtx(id string) context.Context {
	return identity.WithUser(context.Background(), id, false)
}

func TestServiceCreateNormalizes(t *testing.T) {
	store := &storeStub{}
	var got *User
	store.createFn = func(ctx context.Context, u *User) error {
		got = u
		return nil
	}

	svc := &Service{
		Store:          store,
		PasswordHasher: plainHasher,
		IDGenerator:    func() string { return "usr_test" },
	}

	u, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "  Maria@Convento.ORG ",
		Password: " secret1 ",
		FullName: " Irma Maria ",
	})
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if got == nil {
		t.Fatal("user not persisted")
	}
	if u.Email != "maria@convento.org" {
		t.Fatalf("unexpected email: %s", u.Email)
	}
	if u.FullName != "Irma Maria" {
		t.Fatalf("unexpected full name: %s", u.FullName)
	}
	if u.PasswordHash != "hashed:secret1" {
		t.Fatalf("unexpected hash: %s", u.PasswordHash)
	}
	if u.IsApproved || u.IsSuperAdmin {
		t.Fatal("new accounts must start unapproved and non-admin")
	}
}

func TestServiceCreateDuplicateEmail(t *testing.T) {
	store := &storeStub{}
	store.createFn = func(ctx context.Context, u *User) error {
		return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	}

	svc := &Service{Store: store, PasswordHasher: plainHasher}

	_, err := svc.Create(context.Background(), CreateUserRequest{Email: "a@b", Password: "x", FullName: "A"})
	assertKind(t, err, apperrors.KindConflict)
}

func TestServiceMeUnauthorized(t *testing.T) {
	svc := &Service{Store: &storeStub{}}

	_, err := svc.Me(context.Background())
	assertKind(t, err, apperrors.KindUnauthorized)
}

func TestServiceListForbiddenForMembers(t *testing.T) {
	svc := &Service{Store: &storeStub{}}

	_, err := svc.List(memberCtx("usr_1"))
	assertKind(t, err, apperrors.KindForbidden)
}

func TestServiceApprove(t *testing.T) {
	store := &storeStub{}
	var gotID string
	var gotApproved bool
	store.setApprovedFn = func(ctx context.Context, id string, approved bool) error {
		gotID = id
		gotApproved = approved
		return nil
	}

	svc := &Service{Store: store}

	if err := svc.Approve(adminCtx("usr_admin"), "usr_2"); err != nil {
		t.Fatalf("approve error: %v", err)
	}
	if gotID != "usr_2" || !gotApproved {
		t.Fatalf("unexpected call: id=%s approved=%v", gotID, gotApproved)
	}
}

func TestServiceApproveNotFound(t *testing.T) {
	store := &storeStub{}
	store.setApprovedFn = func(ctx context.Context, id string, approved bool) error {
		return ErrNotFound
	}

	svc := &Service{Store: store}

	err := svc.Approve(adminCtx("usr_admin"), "usr_missing")
	assertKind(t, err, apperrors.KindNotFound)
}

func TestServiceRejectSelf(t *testing.T) {
	svc := &Service{Store: &storeStub{}}

	err := svc.Reject(adminCtx("usr_admin"), "usr_admin")
	assertKind(t, err, apperrors.KindInvalidInput)
}

func TestServiceToggleAdmin(t *testing.T) {
	store := &storeStub{}
	store.getByIDFn = func(ctx context.Context, id string) (*User, error) {
		return &User{ID: id, IsSuperAdmin: false}, nil
	}
	var gotValue bool
	store.setSuperAdminFn = func(ctx context.Context, id string, superAdmin bool) error {
		gotValue = superAdmin
		return nil
	}

	svc := &Service{Store: store}

	next, err := svc.ToggleAdmin(adminCtx("usr_admin"), "usr_2")
	if err != nil {
		t.Fatalf("toggle error: %v", err)
	}
	if !next || !gotValue {
		t.Fatal("expected flag to flip to true")
	}
}

func TestServiceToggleAdminSelf(t *testing.T) {
	svc := &Service{Store: &storeStub{}}

	_, err := svc.ToggleAdmin(adminCtx("usr_admin"), "usr_admin")
	assertKind(t, err, apperrors.KindInvalidInput)
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
