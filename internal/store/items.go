package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/labstock/internal/idgen"
	"github.com/erazemk/labstock/internal/model"
)

const itemColumns = `id, name, kind, COALESCE(location, '') AS location, quantity, min_quantity,
	COALESCE(purchase_link, '') AS purchase_link, COALESCE(notes, '') AS notes, created_at, updated_at`

// CreateItem creates a new item with a freshly generated ID.
// Quantities are only stored for consumables.
func CreateItem(ctx context.Context, db *sqlx.DB, in model.NewItem) (*model.Item, error) {
	id := idgen.Token()

	qty, minQty := in.Quantity, in.MinQuantity
	if in.Kind != model.KindConsumable {
		qty, minQty = nil, nil
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO items (id, name, kind, location, quantity, min_quantity, purchase_link, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.Name, in.Kind, nullString(in.Location), qty, minQty, nullString(in.PurchaseLink), nullString(in.Notes),
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, db *sqlx.DB, id string) (*model.Item, error) {
	var item model.Item
	err := db.GetContext(ctx, &item, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return &item, nil
}

// ListItems returns all items ordered by name, optionally filtered by kind.
func ListItems(ctx context.Context, db *sqlx.DB, kind string) ([]model.Item, error) {
	var items []model.Item
	var err error

	if kind != "" {
		err = db.SelectContext(ctx, &items,
			`SELECT `+itemColumns+` FROM items WHERE kind = ? ORDER BY name COLLATE NOCASE`, kind)
	} else {
		err = db.SelectContext(ctx, &items,
			`SELECT `+itemColumns+` FROM items ORDER BY name COLLATE NOCASE`)
	}
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return items, nil
}

// Items adapts the store functions to the item loader used by the scan pipeline.
type Items struct {
	DB *sqlx.DB
}

// GetItem returns an item by ID, or nil if it does not exist.
func (s Items) GetItem(ctx context.Context, id string) (*model.Item, error) {
	return GetItem(ctx, s.DB, id)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
