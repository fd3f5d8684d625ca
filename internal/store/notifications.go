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

const notificationColumns = `id, item_id, channel, status, COALESCE(transport_id, '') AS transport_id,
	COALESCE(error, '') AS error, created_at`

// RecordNotification stores a dispatch attempt. A zero ID is replaced with a generated one.
func RecordNotification(ctx context.Context, db *sqlx.DB, n model.Notification) error {
	if n.ID == 0 {
		id, err := idgen.Int64()
		if err != nil {
			return err
		}
		n.ID = id
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO notifications (id, item_id, channel, status, transport_id, error)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.ItemID, n.Channel, n.Status, nullString(n.TransportID), nullString(n.Error),
	)
	if err != nil {
		return fmt.Errorf("recording notification: %w", err)
	}
	return nil
}

// LastNotification returns the most recent dispatch attempt for an item, or nil.
func LastNotification(ctx context.Context, db *sqlx.DB, itemID string) (*model.Notification, error) {
	var n model.Notification
	err := db.GetContext(ctx, &n,
		`SELECT `+notificationColumns+` FROM notifications WHERE item_id = ? ORDER BY id DESC LIMIT 1`,
		itemID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting last notification: %w", err)
	}
	return &n, nil
}

// ListNotifications returns up to limit dispatch attempts for an item, newest first.
func ListNotifications(ctx context.Context, db *sqlx.DB, itemID string, limit int) ([]model.Notification, error) {
	var list []model.Notification
	err := db.SelectContext(ctx, &list,
		`SELECT `+notificationColumns+` FROM notifications WHERE item_id = ? ORDER BY id DESC LIMIT ?`,
		itemID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return list, nil
}

// Journal adapts RecordNotification to the dispatcher's journal interface.
type Journal struct {
	DB *sqlx.DB
}

// Record stores a dispatch attempt.
func (j Journal) Record(ctx context.Context, n model.Notification) error {
	return RecordNotification(ctx, j.DB, n)
}
