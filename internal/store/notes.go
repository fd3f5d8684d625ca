package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/labstock/internal/model"
)

// AddNote appends a note to an item's thread.
func AddNote(ctx context.Context, db *sqlx.DB, itemID, body string) (*model.Note, error) {
	item, err := GetItem(ctx, db, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO item_notes (item_id, body) VALUES (?, ?)`,
		itemID, body,
	)
	if err != nil {
		return nil, fmt.Errorf("adding note: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting note id: %w", err)
	}

	var note model.Note
	if err := db.GetContext(ctx, &note,
		`SELECT id, item_id, body, created_at FROM item_notes WHERE id = ?`, id,
	); err != nil {
		return nil, fmt.Errorf("getting note: %w", err)
	}
	return &note, nil
}

// ListNotes returns an item's notes, oldest first.
func ListNotes(ctx context.Context, db *sqlx.DB, itemID string) ([]model.Note, error) {
	var notes []model.Note
	err := db.SelectContext(ctx, &notes,
		`SELECT id, item_id, body, created_at FROM item_notes WHERE item_id = ? ORDER BY created_at, id`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	return notes, nil
}
