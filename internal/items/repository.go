package items

import (
	"context"
	"time"

	"github.com/gtnulled/despensa_api/internal/db"
)

type Repository struct {
	base *db.Base
}

func NewRepository(base *db.Base) *Repository {
	return &Repository{base: base}
}

const (
	sqlItemInsert = `INSERT INTO items (id, name, quantity, unit, category, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	sqlItemSelect = `SELECT id, name, quantity, unit, category, created_by, created_at,
			removal_requested, requested_by, requested_at
		FROM items`

	sqlItemGetByID = sqlItemSelect + `
		WHERE id = $1`

	sqlItemList = sqlItemSelect + `
		ORDER BY name`

	sqlItemRequestRemoval = `UPDATE items
		SET removal_requested = true, requested_by = $2, requested_at = $3
		WHERE id = $1 AND NOT removal_requested`

	sqlItemDelete = `DELETE FROM items
		WHERE id = $1`

	sqlItemCountAll = `SELECT count(*) FROM items`

	sqlItemCountLowStock = `SELECT count(*) FROM items
		WHERE quantity > 0 AND quantity <= $1`

	sqlItemCountOutOfStock = `SELECT count(*) FROM items
		WHERE quantity = 0`
)

func (r *Repository) Create(ctx context.Context, it *Item) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	row := r.base.Q().QueryRow(ctx, sqlItemInsert,
		it.ID,
		it.Name,
		it.Quantity,
		string(it.Unit),
		nullIfEmpty(it.Category),
		it.CreatedBy,
	)
	if err := row.Scan(&it.CreatedAt); err != nil {
		return err
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Item, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	it, err := scanItem(r.base.Q().QueryRow(ctx, sqlItemGetByID, id))
	if IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

// List returns the whole stock ordered by name. The pantry holds a few
// hundred items at most, so there is no pagination.
func (r *Repository) List(ctx context.Context) ([]*Item, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rows, err := r.base.Q().Query(ctx, sqlItemList)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// RequestRemoval flags an active item; already-flagged items are left
// untouched so the first requester is preserved.
func (r *Repository) RequestRemoval(ctx context.Context, id, requesterID string, at time.Time) (bool, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	tag, err := r.base.Q().Exec(ctx, sqlItemRequestRemoval, id, requesterID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	tag, err := r.base.Q().Exec(ctx, sqlItemDelete, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) CountAll(ctx context.Context) (int64, error) {
	return r.count(ctx, sqlItemCountAll)
}

func (r *Repository) CountLowStock(ctx context.Context, threshold float64) (int64, error) {
	return r.count(ctx, sqlItemCountLowStock, threshold)
}

func (r *Repository) CountOutOfStock(ctx context.Context) (int64, error) {
	return r.count(ctx, sqlItemCountOutOfStock)
}

func (r *Repository) count(ctx context.Context, sql string, args ...any) (int64, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	var n int64
	if err := r.base.Q().QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var it Item
	var unit string
	var category, requestedBy *string
	err := row.Scan(
		&it.ID,
		&it.Name,
		&it.Quantity,
		&unit,
		&category,
		&it.CreatedBy,
		&it.CreatedAt,
		&it.RemovalRequested,
		&requestedBy,
		&it.RequestedAt,
	)
	if err != nil {
		return nil, err
	}
	it.Unit = Unit(unit)
	if category != nil {
		it.Category = *category
	}
	if requestedBy != nil {
		it.RequestedBy = *requestedBy
	}
	return &it, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
