package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/gtnulled/despensa_api/internal"
	"github.com/gtnulled/despensa_api/internal/apperrors"
	"github.com/gtnulled/despensa_api/internal/identity"
)

type Store interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context) ([]*User, error)
	SetApproved(ctx context.Context, id string, approved bool) error
	SetSuperAdmin(ctx context.Context, id string, superAdmin bool) error
	Delete(ctx context.Context, id string) error
}

type Service struct {
	Store          Store
	PasswordHasher func(plain string) (string, error)
	IDGenerator    func() string
}

// Create registers a new account. New accounts always start with
// is_approved=false and is_super_admin=false.
func (s *Service) Create(ctx context.Context, req CreateUserRequest) (*User, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "users store not configured")
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	fullName := strings.TrimSpace(req.FullName)
	password := strings.TrimSpace(req.Password)

	hasher := s.PasswordHasher
	if hasher == nil {
		hasher = internal.DefaultPasswordHasher
	}

	hash, err := hasher(password)
	if err != nil {
		return nil, apperrors.New(apperrors.KindInternal, "failed to process password")
	}

	idGen := s.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}

	u := &User{
		ID:           idGen(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
	}

	if err := s.Store.Create(ctx, u); err != nil {
		if IsUniqueViolationEmail(err) {
			return nil, apperrors.New(apperrors.KindConflict, "email already exists")
		}
		return nil, apperrors.New(apperrors.KindInternal, "failed to create user")
	}

	return u, nil
}

func (s *Service) Me(ctx context.Context) (*User, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "users store not configured")
	}
	userID, ok := identity.UserID(ctx)
	if !ok || strings.TrimSpace(userID) == "" {
		return nil, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}

	u, err := s.Store.GetByID(ctx, userID)
	if err != nil {
		if IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindNotFound, "user not found")
		}
		return nil, apperrors.New(apperrors.KindInternal, "failed to load user")
	}
	return u, nil
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "users store not configured")
	}
	if err := requireSuperAdmin(ctx); err != nil {
		return nil, err
	}

	list, err := s.Store.List(ctx)
	if err != nil {
		return nil, apperrors.New(apperrors.KindInternal, "failed to list users")
	}
	return list, nil
}

// Approve grants a pending account access to the workspace.
func (s *Service) Approve(ctx context.Context, targetID string) error {
	if s.Store == nil {
		return apperrors.New(apperrors.KindInternal, "users store not configured")
	}
	if err := requireSuperAdmin(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(targetID) == "" {
		return apperrors.New(apperrors.KindInvalidInput, "id is required")
	}

	if err := s.Store.SetApproved(ctx, targetID, true); err != nil {
		if IsNotFound(err) {
			return apperrors.New(apperrors.KindNotFound, "user not found")
		}
		return apperrors.New(apperrors.KindInternal, "failed to approve user")
	}
	return nil
}

// Reject deletes the account outright. Irreversible: the user must
// sign up again to reappear in the pending list.
func (s *Service) Reject(ctx context.Context, targetID string) error {
	if s.Store == nil {
		return apperrors.New(apperrors.KindInternal, "users store not configured")
	}
	if err := requireSuperAdmin(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(targetID) == "" {
		return apperrors.New(apperrors.KindInvalidInput, "id is required")
	}
	if requesterID, _ := identity.UserID(ctx); requesterID == targetID {
		return apperrors.New(apperrors.KindInvalidInput, "cannot reject own account")
	}

	if err := s.Store.Delete(ctx, targetID); err != nil {
		if IsNotFound(err) {
			return apperrors.New(apperrors.KindNotFound, "user not found")
		}
		return apperrors.New(apperrors.KindInternal, "failed to delete user")
	}
	return nil
}

// ToggleAdmin flips the super admin flag and returns the new value.
func (s *Service) ToggleAdmin(ctx context.Context, targetID string) (bool, error) {
	if s.Store == nil {
		return false, apperrors.New(apperrors.KindInternal, "users store not configured")
	}
	if err := requireSuperAdmin(ctx); err != nil {
		return false, err
	}
	if strings.TrimSpace(targetID) == "" {
		return false, apperrors.New(apperrors.KindInvalidInput, "id is required")
	}
	if requesterID, _ := identity.UserID(ctx); requesterID == targetID {
		return false, apperrors.New(apperrors.KindInvalidInput, "cannot change own admin role")
	}

	u, err := s.Store.GetByID(ctx, targetID)
	if err != nil {
		if IsNotFound(err) {
			return false, apperrors.New(apperrors.KindNotFound, "user not found")
		}
		return false, apperrors.New(apperrors.KindInternal, "failed to load user")
	}

	next := !u.IsSuperAdmin
	if err := s.Store.SetSuperAdmin(ctx, targetID, next); err != nil {
		if IsNotFound(err) {
			return false, apperrors.New(apperrors.KindNotFound, "user not found")
		}
		return false, apperrors.New(apperrors.KindInternal, "failed to update user")
	}
	return next, nil
}

func requireSuperAdmin(ctx context.Context) error {
	requesterID, ok := identity.UserID(ctx)
	if !ok || strings.TrimSpace(requesterID) == "" {
		return apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}
	if !identity.IsSuperAdmin(ctx) {
		return apperrors.New(apperrors.KindForbidden, "forbidden")
	}
	return nil
}
