package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/labstock/internal/model"
)

// ErrNotConsumable is returned when a stock level is changed on a tool.
var ErrNotConsumable = errors.New("only consumables have a stock level")

// ErrItemNotFound is returned when the target item does not exist.
var ErrItemNotFound = errors.New("item not found")

// ErrInsufficientStock is returned when an adjustment would go below zero.
var ErrInsufficientStock = errors.New("not enough stock")

// SetQuantity sets the stock level of a consumable.
func SetQuantity(ctx context.Context, db *sqlx.DB, id string, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("quantity must not be negative")
	}
	return updateQuantity(ctx, db, id, func(int) (int, error) { return quantity, nil })
}

// AdjustQuantity changes the stock level of a consumable by delta.
// Delta can be negative, but the result must not drop below zero.
func AdjustQuantity(ctx context.Context, db *sqlx.DB, id string, delta int) error {
	if delta == 0 {
		return fmt.Errorf("delta must be non-zero")
	}
	return updateQuantity(ctx, db, id, func(current int) (int, error) {
		next := current + delta
		if next < 0 {
			return 0, fmt.Errorf("%w: %d + %d = %d", ErrInsufficientStock, current, delta, next)
		}
		return next, nil
	})
}

func updateQuantity(ctx context.Context, db *sqlx.DB, id string, next func(current int) (int, error)) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var row struct {
		Kind     string        `db:"kind"`
		Quantity sql.NullInt64 `db:"quantity"`
	}
	err = tx.GetContext(ctx, &row, `SELECT kind, quantity FROM items WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrItemNotFound
	}
	if err != nil {
		return fmt.Errorf("checking item: %w", err)
	}
	if row.Kind != model.KindConsumable {
		return ErrNotConsumable
	}

	qty, err := next(int(row.Quantity.Int64))
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET quantity = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		qty, id,
	)
	if err != nil {
		return fmt.Errorf("updating quantity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing quantity update: %w", err)
	}
	return nil
}
