package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: lookups by item for the note thread and the notification journal.
	`CREATE INDEX IF NOT EXISTS idx_item_notes_item ON item_notes(item_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_item ON notifications(item_id, created_at)`,
	// Migration 2: the inventory list is ordered by name.
	`CREATE INDEX IF NOT EXISTS idx_items_name ON items(name COLLATE NOCASE)`,
}

func migrate(db *sqlx.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
