package users

import "time"

// User is the application account. Accounts start unapproved and only
// become usable after a super admin approves them.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	IsSuperAdmin bool      `json:"is_super_admin"`
	IsApproved   bool      `json:"is_approved"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateUserRequest struct {
	Email    string
	Password string
	FullName string
}

type UserResponse struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	IsSuperAdmin bool      `json:"is_super_admin"`
	IsApproved   bool      `json:"is_approved"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) Response() UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		IsSuperAdmin: u.IsSuperAdmin,
		IsApproved:   u.IsApproved,
		CreatedAt:    u.CreatedAt,
	}
}
