package model

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// OrderEvent is one entry in the append-only order ledger. Entries are
// never updated or deleted; webhook idempotency checks look for the
// upstream event id inside Metadata.
type OrderEvent struct {
	ID        string         `json:"id"`
	OrderID   string         `json:"order_id"`
	EventType string         `json:"event_type"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

// PourLog is the immutable operational record of one authorized pour.
type PourLog struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	TapID      string    `json:"tap_id"`
	TapNumber  int       `json:"tap_number"`
	Quantity   int       `json:"quantity"`
	PourSizeOz float64   `json:"pour_size_oz"`
	TotalOz    float64   `json:"total_oz"`
	UserID     string    `json:"user_id"`
	VenueID    string    `json:"venue_id"`
	PouredAt   time.Time `json:"poured_at"`
}
