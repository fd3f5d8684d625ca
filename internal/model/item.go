package model

import (
	"strings"
	"time"
)

// Item is a tracked lab inventory record.
type Item struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Kind         string    `json:"kind" db:"kind"`
	Location     string    `json:"location,omitempty" db:"location"`
	Quantity     *int      `json:"quantity,omitempty" db:"quantity"`
	MinQuantity  *int      `json:"min_quantity,omitempty" db:"min_quantity"`
	PurchaseLink string    `json:"purchase_link,omitempty" db:"purchase_link"`
	Notes        string    `json:"notes,omitempty" db:"notes"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Item kinds.
const (
	KindConsumable = "consumable"
	KindTool       = "tool"
)

// ValidKind reports whether kind is a known item kind.
func ValidKind(kind string) bool {
	return kind == KindConsumable || kind == KindTool
}

// Status is the derived low-stock status of an item.
type Status string

// Statuses. StatusNone is used for tools, which have no stock level.
const (
	StatusNone Status = ""
	StatusLow  Status = "Low"
	StatusOK   Status = "OK"
)

// ParseStatus parses a status name case-insensitively. Unknown names map to StatusNone.
func ParseStatus(s string) Status {
	switch {
	case strings.EqualFold(s, string(StatusLow)):
		return StatusLow
	case strings.EqualFold(s, string(StatusOK)):
		return StatusOK
	default:
		return StatusNone
	}
}

// Status derives the low-stock status. Missing quantities count as zero.
func (i *Item) Status() Status {
	if i == nil || i.Kind != KindConsumable {
		return StatusNone
	}
	if intValue(i.Quantity) <= intValue(i.MinQuantity) {
		return StatusLow
	}
	return StatusOK
}

// QuantityValue returns the quantity, or 0 when unset.
func (i *Item) QuantityValue() int {
	return intValue(i.Quantity)
}

// MinQuantityValue returns the minimum quantity, or 0 when unset.
func (i *Item) MinQuantityValue() int {
	return intValue(i.MinQuantity)
}

func intValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// NewItem holds the fields accepted when creating an item.
type NewItem struct {
	Name         string `json:"name" validate:"required,max=200"`
	Kind         string `json:"kind" validate:"required,oneof=consumable tool"`
	Location     string `json:"location" validate:"max=200"`
	Quantity     *int   `json:"quantity" validate:"omitempty,min=0"`
	MinQuantity  *int   `json:"min_quantity" validate:"omitempty,min=0"`
	PurchaseLink string `json:"purchase_link" validate:"omitempty,url,max=2048"`
	Notes        string `json:"notes" validate:"max=10000"`
}
