package model

import "time"

// Note is one entry in an item's comment thread.
type Note struct {
	ID        int64     `json:"id" db:"id"`
	ItemID    string    `json:"item_id" db:"item_id"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Notification records one dispatch attempt for an item.
type Notification struct {
	ID          int64     `json:"id" db:"id"`
	ItemID      string    `json:"item_id" db:"item_id"`
	Channel     string    `json:"channel" db:"channel"`
	Status      string    `json:"status" db:"status"`
	TransportID string    `json:"transport_id,omitempty" db:"transport_id"`
	Error       string    `json:"-" db:"error"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Notification statuses.
const (
	NotificationSent   = "sent"
	NotificationFailed = "failed"
)
