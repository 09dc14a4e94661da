package users

import (
	"context"

	"github.com/gtnulled/despensa_api/internal/db"
)

type Repository struct {
	base *db.Base
}

func NewRepository(base *db.Base) *Repository {
	return &Repository{base: base}
}

const (
	sqlUserInsert = `INSERT INTO users (id, email, full_name, password_hash, is_super_admin, is_approved)
		VALUES ($1, $2, $3, $4, false, false)
		RETURNING created_at`

	sqlUserList = `SELECT id, email, full_name, password_hash, is_super_admin, is_approved, created_at
		FROM users
		ORDER BY created_at DESC`

	sqlUserGetByEmail = `SELECT id, email, full_name, password_hash, is_super_admin, is_approved, created_at
		FROM users
		WHERE email = $1`

	sqlUserGetByID = `SELECT id, email, full_name, password_hash, is_super_admin, is_approved, created_at
		FROM users
		WHERE id = $1`

	sqlUserSetApproved = `UPDATE users
		SET is_approved = $2
		WHERE id = $1`

	sqlUserSetSuperAdmin = `UPDATE users
		SET is_super_admin = $2
		WHERE id = $1`

	sqlUserDelete = `DELETE FROM users
		WHERE id = $1`
)

// Create inserts the row with both flags forced to false. Whatever the
// caller claims about roles never reaches the database.
func (r *Repository) Create(ctx context.Context, u *User) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	u.IsSuperAdmin = false
	u.IsApproved = false

	row := r.base.Q().QueryRow(ctx, sqlUserInsert, u.ID, u.Email, u.FullName, u.PasswordHash)
	if err := row.Scan(&u.CreatedAt); err != nil {
		return err
	}
	return nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (User, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	var u User
	err := r.base.Q().QueryRow(ctx, sqlUserGetByEmail, email).Scan(
		&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.IsSuperAdmin, &u.IsApproved, &u.CreatedAt,
	)
	if IsNotFound(err) {
		return User{}, ErrNotFound
	}

	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	var u User
	err := r.base.Q().QueryRow(ctx, sqlUserGetByID, id).Scan(
		&u.ID,
		&u.Email,
		&u.FullName,
		&u.PasswordHash,
		&u.IsSuperAdmin,
		&u.IsApproved,
		&u.CreatedAt,
	)

	if IsNotFound(err) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return &u, nil
}

// List returns every account, newest first. The community is small
// enough that the admin screen loads the full table.
func (r *Repository) List(ctx context.Context) ([]*User, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rows, err := r.base.Q().Query(ctx, sqlUserList)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.IsSuperAdmin, &u.IsApproved, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) SetApproved(ctx context.Context, id string, approved bool) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	tag, err := r.base.Q().Exec(ctx, sqlUserSetApproved, id, approved)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) SetSuperAdmin(ctx context.Context, id string, superAdmin bool) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	tag, err := r.base.Q().Exec(ctx, sqlUserSetSuperAdmin, id, superAdmin)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	tag, err := r.base.Q().Exec(ctx, sqlUserDelete, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
