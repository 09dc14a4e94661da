package withdrawals

import (
	"context"
	"errors"
	"time"

	"github.com/gtnulled/despensa_api/internal/db"
	"github.com/gtnulled/despensa_api/internal/items"
	"github.com/jackc/pgx/v5"
)

var (
	ErrItemNotFound      = errors.New("item not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Repository struct {
	base *db.Base
}

func NewRepository(base *db.Base) *Repository {
	return &Repository{base: base}
}

const (
	// The conditional decrement is what prevents overselling: two
	// concurrent withdrawals serialize on the row lock and the loser
	// sees the already-reduced quantity.
	sqlItemDecrement = `UPDATE items
		SET quantity = quantity - $2
		WHERE id = $1 AND quantity >= $2`

	sqlItemQuantity = `SELECT quantity FROM items
		WHERE id = $1`

	sqlWithdrawalInsert = `INSERT INTO withdrawals (id, item_id, user_id, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING withdrawn_at`

	sqlWithdrawalSelect = `SELECT w.id, COALESCE(w.item_id, ''), COALESCE(w.user_id, ''), w.quantity, w.withdrawn_at,
			COALESCE(i.name, ''), COALESCE(i.unit, ''), COALESCE(u.full_name, '')
		FROM withdrawals w
		LEFT JOIN items i ON i.id = w.item_id
		LEFT JOIN users u ON u.id = w.user_id`

	sqlWithdrawalListAll = sqlWithdrawalSelect + `
		ORDER BY w.withdrawn_at DESC`

	sqlWithdrawalListByUser = sqlWithdrawalSelect + `
		WHERE w.user_id = $1
		ORDER BY w.withdrawn_at DESC`

	sqlWithdrawalListRange = sqlWithdrawalSelect + `
		WHERE w.withdrawn_at >= $1 AND w.withdrawn_at <= $2`

	sqlWithdrawalCountAll = `SELECT count(*) FROM withdrawals`

	sqlWithdrawalCountSince = `SELECT count(*) FROM withdrawals
		WHERE withdrawn_at >= $1`
)

// Withdraw decrements the stock and records the log entry in a single
// transaction. Either both writes land or neither does.
func (r *Repository) Withdraw(ctx context.Context, w *Withdrawal) error {
	return r.base.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, sqlItemDecrement, w.ItemID, w.Quantity)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var current float64
			err := tx.QueryRow(ctx, sqlItemQuantity, w.ItemID).Scan(&current)
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrItemNotFound
			}
			if err != nil {
				return err
			}
			return ErrInsufficientStock
		}

		return tx.QueryRow(ctx, sqlWithdrawalInsert,
			w.ID, w.ItemID, w.UserID, w.Quantity,
		).Scan(&w.WithdrawnAt)
	})
}

// List returns the full history, or only one user's rows when userID
// is set. Newest first.
func (r *Repository) List(ctx context.Context, userID string) ([]*Detail, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	var rows pgx.Rows
	var err error
	if userID == "" {
		rows, err = r.base.Q().Query(ctx, sqlWithdrawalListAll)
	} else {
		rows, err = r.base.Q().Query(ctx, sqlWithdrawalListByUser, userID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDetails(rows)
}

func (r *Repository) ListRange(ctx context.Context, from, to time.Time) ([]*Detail, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rows, err := r.base.Q().Query(ctx, sqlWithdrawalListRange, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDetails(rows)
}

func (r *Repository) CountAll(ctx context.Context) (int64, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	var n int64
	if err := r.base.Q().QueryRow(ctx, sqlWithdrawalCountAll).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *Repository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	var n int64
	if err := r.base.Q().QueryRow(ctx, sqlWithdrawalCountSince, since).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func collectDetails(rows pgx.Rows) ([]*Detail, error) {
	var out []*Detail
	for rows.Next() {
		var d Detail
		var unit string
		if err := rows.Scan(
			&d.ID,
			&d.ItemID,
			&d.UserID,
			&d.Quantity,
			&d.WithdrawnAt,
			&d.ItemName,
			&unit,
			&d.UserFullName,
		); err != nil {
			return nil, err
		}
		d.ItemUnit = items.Unit(unit)
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
