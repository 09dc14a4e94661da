package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gtnulled/despensa_api/internal/apperrors"
	"github.com/gtnulled/despensa_api/internal/session"
	"github.com/gtnulled/despensa_api/internal/users"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (users.User, error)
	GetByID(ctx context.Context, id string) (*users.User, error)
}

type Registrar interface {
	Create(ctx context.Context, req users.CreateUserRequest) (*users.User, error)
}

type SessionManager interface {
	Create(ctx context.Context, userID string) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	Refresh(ctx context.Context, sess *session.Session) (*session.Session, bool, error)
	Delete(ctx context.Context, id string) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

type Service struct {
	Users            UserStore
	Accounts         Registrar
	Sessions         SessionManager
	LoginLimiter     RateLimiter
	PasswordVerifier func(hashed, plain string) error
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	ClientIP string `json:"-"`
}

type SignUpInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type SessionInfo struct {
	ID        string
	UserID    string
	CSRFToken string
	ExpiresAt time.Time
}

type LoginResult struct {
	User    users.User
	Session SessionInfo
}

func (s *Service) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	if s.Users == nil || s.Sessions == nil {
		return LoginResult{}, apperrors.New(apperrors.KindInternal, "auth not configured")
	}

	email := strings.TrimSpace(strings.ToLower(input.Email))
	password := strings.TrimSpace(input.Password)
	if email == "" || password == "" {
		return LoginResult{}, apperrors.New(apperrors.KindInvalidInput, "email and password are required")
	}
	if !strings.Contains(email, "@") {
		return LoginResult{}, apperrors.New(apperrors.KindInvalidInput, "invalid email")
	}

	if s.LoginLimiter != nil {
		if strings.TrimSpace(input.ClientIP) != "" {
			allowed, retryAfter, err := s.LoginLimiter.Allow(ctx, "login:ip:"+input.ClientIP)
			if err != nil {
				return LoginResult{}, apperrors.New(apperrors.KindInternal, "rate limit error")
			}
			if !allowed {
				return LoginResult{}, apperrors.RateLimit("too many requests", retryAfter)
			}
		}

		allowed, retryAfter, err := s.LoginLimiter.Allow(ctx, "login:email:"+email)
		if err != nil {
			return LoginResult{}, apperrors.New(apperrors.KindInternal, "rate limit error")
		}
		if !allowed {
			return LoginResult{}, apperrors.RateLimit("too many requests", retryAfter)
		}
	}

	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, apperrors.New(apperrors.KindUnauthorized, "invalid credentials")
	}

	verifier := s.PasswordVerifier
	if verifier == nil {
		verifier = func(hashed, plain string) error {
			return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
		}
	}

	if err := verifier(u.PasswordHash, password); err != nil {
		return LoginResult{}, apperrors.New(apperrors.KindUnauthorized, "invalid credentials")
	}

	// Correct credentials are not enough: a pending account never
	// receives a session, so nothing has to be revoked afterwards.
	if !u.IsApproved {
		return LoginResult{}, apperrors.New(apperrors.KindForbidden, "account pending approval")
	}

	sess, err := s.Sessions.Create(ctx, u.ID)
	if err != nil {
		return LoginResult{}, apperrors.New(apperrors.KindInternal, "failed to create session")
	}

	return LoginResult{
		User: u,
		Session: SessionInfo{
			ID:        sess.ID,
			UserID:    sess.UserID,
			CSRFToken: sess.CSRFToken,
			ExpiresAt: sess.ExpiresAt,
		},
	}, nil
}

func (s *Service) SignUp(ctx context.Context, input SignUpInput) (*users.User, error) {
	if s.Accounts == nil {
		return nil, apperrors.New(apperrors.KindInternal, "auth not configured")
	}

	email := strings.TrimSpace(strings.ToLower(input.Email))
	password := strings.TrimSpace(input.Password)
	fullName := strings.TrimSpace(input.FullName)
	if email == "" || password == "" || fullName == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "email, password and full name are required")
	}
	if !strings.Contains(email, "@") {
		return nil, apperrors.New(apperrors.KindInvalidInput, "invalid email")
	}

	return s.Accounts.Create(ctx, users.CreateUserRequest{
		Email:    email,
		Password: password,
		FullName: fullName,
	})
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if s.Sessions == nil {
		return apperrors.New(apperrors.KindInternal, "auth not configured")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	if err := s.Sessions.Delete(ctx, sessionID); err != nil {
		return apperrors.New(apperrors.KindInternal, "failed to logout")
	}
	return nil
}

// AuthenticateSession resolves the session and the current user row in
// one pass. Loading the row on every request means approval changes,
// admin toggles and account rejection take effect immediately instead
// of whenever the session happens to expire.
func (s *Service) AuthenticateSession(ctx context.Context, sessionID, csrfToken, method string) (SessionInfo, *users.User, bool, error) {
	if s.Sessions == nil || s.Users == nil {
		return SessionInfo{}, nil, false, apperrors.New(apperrors.KindInternal, "auth not configured")
	}
	if strings.TrimSpace(sessionID) == "" {
		return SessionInfo{}, nil, false, apperrors.New(apperrors.KindUnauthorized, "missing session")
	}

	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return SessionInfo{}, nil, false, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}

	if requiresCSRFToken(method) {
		if csrfToken == "" || csrfToken != sess.CSRFToken {
			return SessionInfo{}, nil, false, apperrors.New(apperrors.KindForbidden, "forbidden")
		}
	}

	refreshed := false
	sess, refreshed, err = s.Sessions.Refresh(ctx, sess)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return SessionInfo{}, nil, false, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
		}
		return SessionInfo{}, nil, false, apperrors.New(apperrors.KindInternal, "failed to refresh session")
	}

	u, err := s.Users.GetByID(ctx, sess.UserID)
	if err != nil {
		if users.IsNotFound(err) {
			// Rejected account with a live session: drop the session.
			_ = s.Sessions.Delete(ctx, sess.ID)
			return SessionInfo{}, nil, false, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
		}
		return SessionInfo{}, nil, false, apperrors.New(apperrors.KindInternal, "failed to load user")
	}

	if !u.IsApproved {
		_ = s.Sessions.Delete(ctx, sess.ID)
		return SessionInfo{}, nil, false, apperrors.New(apperrors.KindForbidden, "account pending approval")
	}

	info := SessionInfo{
		ID:        sess.ID,
		UserID:    sess.UserID,
		CSRFToken: sess.CSRFToken,
		ExpiresAt: sess.ExpiresAt,
	}
	return info, u, refreshed, nil
}

func requiresCSRFToken(method string) bool {
	switch method {
	case "GET", "HEAD", "OPTIONS":
		return false
	default:
		return true
	}
}
