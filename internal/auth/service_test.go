package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gtnulled/despensa_api/internal/apperrors"
	"github.com/gtnulled/despensa_api/internal/session"
	"github.com/gtnulled/despensa_api/internal/users"
)

type userStoreStub struct {
	getByEmailFn func(ctx context.Context, email string) (users.User, error)
	getByIDFn    func(ctx context.Context, id string) (*users.User, error)
}

func (u *userStoreStub) GetByEmail(ctx context.Context, email string) (users.User, error) {
	if u.getByEmailFn != nil {
		return u.getByEmailFn(ctx, email)
	}
	return users.User{}, users.ErrNotFound
}

func (u *userStoreStub) GetByID(ctx context.Context, id string) (*users.User, error) {
	if u.getByIDFn != nil {
		return u.getByIDFn(ctx, id)
	}
	return nil, users.ErrNotFound
}

type sessionStub struct {
	createFn  func(ctx context.Context, userID string) (*session.Session, error)
	getFn     func(ctx context.Context, id string) (*session.Session, error)
	refreshFn func(ctx context.Context, sess *session.Session) (*session.Session, bool, error)
	deleteFn  func(ctx context.Context, id string) error
}

func (s *sessionStub) Create(ctx context.Context, userID string) (*session.Session, error) {
	if s.createFn != nil {
		return s.createFn(ctx, userID)
	}
	return nil, errors.New("not implemented")
}

func (s *sessionStub) Get(ctx context.Context, id string) (*session.Session, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return nil, session.ErrNotFound
}

func (s *sessionStub) Refresh(ctx context.Context, sess *session.Session) (*session.Session, bool, error) {
	if s.refreshFn != nil {
		return s.refreshFn(ctx, sess)
	}
	return sess, false, nil
}

func (s *sessionStub) Delete(ctx context.Context, id string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

type limiterStub struct {
	allowFn func(ctx context.Context, key string) (bool, time.Duration, error)
}

func (l *limiterStub) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l.allowFn != nil {
		return l.allowFn(ctx, key)
	}
	return true, 0, nil
}

func acceptingVerifier(hashed, plain string) error { return nil }

func TestServiceLoginInvalidEmail(t *testing.T) {
	svc := &Service{Users: &userStoreStub{}, Sessions: &sessionStub{}}

	_, err := svc.Login(context.Background(), LoginInput{Email: "invalid", Password: "x"})
	assertKind(t, err, apperrors.KindInvalidInput)
}

func TestServiceLoginSuccess(t *testing.T) {
	store := &userStoreStub{}
	sessions := &sessionStub{}

	store.getByEmailFn = func(ctx context.Context, email string) (users.User, error) {
		return users.User{ID: "usr_1", Email: "user@local", PasswordHash: "hash", IsApproved: true}, nil
	}

	expiresAt := time.Now().Add(time.Hour)
	sessions.createFn = func(ctx context.Context, userID string) (*session.Session, error) {
		return &session.Session{
			ID:        "ses_1",
			UserID:    userID,
			CSRFToken: "csrf_1",
			ExpiresAt: expiresAt,
		}, nil
	}

	svc := &Service{Users: store, Sessions: sessions, PasswordVerifier: acceptingVerifier}

	result, err := svc.Login(context.Background(), LoginInput{Email: "User@Local", Password: "secret"})
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	if result.Session.ID != "ses_1" {
		t.Fatalf("unexpected session id: %s", result.Session.ID)
	}
	if result.Session.CSRFToken != "csrf_1" {
		t.Fatalf("unexpected csrf token: %s", result.Session.CSRFToken)
	}
	if result.User.ID != "usr_1" {
		t.Fatalf("unexpected user id: %s", result.User.ID)
	}
}

func TestServiceLoginWrongPassword(t *testing.T) {
	store := &userStoreStub{}
	store.getByEmailFn = func(ctx context.Context, email string) (users.User, error) {
		return users.User{ID: "usr_1", PasswordHash: "hash", IsApproved: true}, nil
	}

	svc := &Service{
		Users:    store,
		Sessions: &sessionStub{},
		PasswordVerifier: func(hashed, plain string) error {
			return errors.New("mismatch")
		},
	}

	_, err := svc.Login(context.Background(), LoginInput{Email: "user@local", Password: "bad"})
	assertKind(t, err, apperrors.KindUnauthorized)
}

func TestServiceLoginPendingApproval(t *testing.T) {
	store := &userStoreStub{}
	store.getByEmailFn = func(ctx context.Context, email string) (users.User, error) {
		return users.User{ID: "usr_1", PasswordHash: "hash", IsApproved: false}, nil
	}

	sessions := &sessionStub{}
	created := false
	sessions.createFn = func(ctx context.Context, userID string) (*session.Session, error) {
		created = true
		return &session.Session{ID: "ses_1", UserID: userID}, nil
	}

	svc := &Service{Users: store, Sessions: sessions, PasswordVerifier: acceptingVerifier}

	_, err := svc.Login(context.Background(), LoginInput{Email: "user@local", Password: "secret"})
	assertKind(t, err, apperrors.KindForbidden)
	if created {
		t.Fatal("session must not be created for a pending account")
	}
}

func TestServiceLoginRateLimited(t *testing.T) {
	limiter := &limiterStub{allowFn: func(ctx context.Context, key string) (bool, time.Duration, error) {
		return false, 30 * time.Second, nil
	}}

	svc := &Service{Users: &userStoreStub{}, Sessions: &sessionStub{}, LoginLimiter: limiter}

	_, err := svc.Login(context.Background(), LoginInput{Email: "user@local", Password: "secret", ClientIP: "10.0.0.1"})
	assertKind(t, err, apperrors.KindRateLimited)

	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected app error, got: %v", err)
	}
	if appErr.RetryAfter != 30*time.Second {
		t.Fatalf("unexpected retry after: %s", appErr.RetryAfter)
	}
}

func TestServiceLoginUnknownEmail(t *testing.T) {
	svc := &Service{Users: &userStoreStub{}, Sessions: &sessionStub{}, PasswordVerifier: acceptingVerifier}

	_, err := svc.Login(context.Background(), LoginInput{Email: "missing@local", Password: "secret"})
	assertKind(t, err, apperrors.KindUnauthorized)
}

func TestServiceAuthenticateSessionMissing(t *testing.T) {
	svc := &Service{Users: &userStoreStub{}, Sessions: &sessionStub{}}

	_, _, _, err := svc.AuthenticateSession(context.Background(), "", "", "GET")
	assertKind(t, err, apperrors.KindUnauthorized)
}

func TestServiceAuthenticateSessionCSRF(t *testing.T) {
	sessions := &sessionStub{}
	sessions.getFn = func(ctx context.Context, id string) (*session.Session, error) {
		return &session.Session{ID: id, UserID: "usr_1", CSRFToken: "good"}, nil
	}

	store := &userStoreStub{}
	store.getByIDFn = func(ctx context.Context, id string) (*users.User, error) {
		return &users.User{ID: id, IsApproved: true}, nil
	}

	svc := &Service{Users: store, Sessions: sessions}

	_, _, _, err := svc.AuthenticateSession(context.Background(), "ses_1", "bad", "POST")
	assertKind(t, err, apperrors.KindForbidden)

	if _, _, _, err := svc.AuthenticateSession(context.Background(), "ses_1", "good", "POST"); err != nil {
		t.Fatalf("authenticate error: %v", err)
	}

	// GET does not require the token.
	if _, _, _, err := svc.AuthenticateSession(context.Background(), "ses_1", "", "GET"); err != nil {
		t.Fatalf("authenticate error: %v", err)
	}
}

func TestServiceAuthenticateSessionRevokedApproval(t *testing.T) {
	sessions := &sessionStub{}
	sessions.getFn = func(ctx context.Context, id string) (*session.Session, error) {
		return &session.Session{ID: id, UserID: "usr_1"}, nil
	}
	deleted := ""
	sessions.deleteFn = func(ctx context.Context, id string) error {
		deleted = id
		return nil
	}

	store := &userStoreStub{}
	store.getByIDFn = func(ctx context.Context, id string) (*users.User, error) {
		return &users.User{ID: id, IsApproved: false}, nil
	}

	svc := &Service{Users: store, Sessions: sessions}

	_, _, _, err := svc.AuthenticateSession(context.Background(), "ses_1", "", "GET")
	assertKind(t, err, apperrors.KindForbidden)
	if deleted != "ses_1" {
		t.Fatalf("expected session to be dropped, got %q", deleted)
	}
}

func TestServiceAuthenticateSessionDeletedUser(t *testing.T) {
	sessions := &sessionStub{}
	sessions.getFn = func(ctx context.Context, id string) (*session.Session, error) {
		return &session.Session{ID: id, UserID: "usr_gone"}, nil
	}
	deleted := ""
	sessions.deleteFn = func(ctx context.Context, id string) error {
		deleted = id
		return nil
	}

	svc := &Service{Users: &userStoreStub{}, Sessions: sessions}

	_, _, _, err := svc.AuthenticateSession(context.Background(), "ses_1", "", "GET")
	assertKind(t, err, apperrors.KindUnauthorized)
	if deleted != "ses_1" {
		t.Fatalf("expected session to be dropped, got %q", deleted)
	}
}

func TestServiceSignUpNormalizesEmail(t *testing.T) {
	var got users.CreateUserRequest
	accounts := &registrarStub{createFn: func(ctx context.Context, req users.CreateUserRequest) (*users.User, error) {
		got = req
		return &users.User{ID: "usr_1", Email: req.Email, FullName: req.FullName}, nil
	}}

	svc := &Service{Accounts: accounts}

	if _, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "  New@Local ",
		Password: "secret1",
		FullName: "Irma Teresa",
	}); err != nil {
		t.Fatalf("signup error: %v", err)
	}
	if got.Email != "new@local" {
		t.Fatalf("unexpected email: %s", got.Email)
	}
}

type registrarStub struct {
	createFn func(ctx context.Context, req users.CreateUserRequest) (*users.User, error)
}

func (r *registrarStub) Create(ctx context.Context, req users.CreateUserRequest) (*users.User, error) {
	if r.createFn != nil {
		return r.createFn(ctx, req)
	}
	return nil, errors.New("not implemented")
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
