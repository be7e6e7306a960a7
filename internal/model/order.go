package model

import "time"

type OrderStatus string

const (
	StatusPendingPayment OrderStatus = "pending_payment"
	StatusPaid           OrderStatus = "paid"
	StatusReadyToRedeem  OrderStatus = "ready_to_redeem"
	StatusRedeemed       OrderStatus = "redeemed"
	StatusPouring        OrderStatus = "pouring"
	StatusCompleted      OrderStatus = "completed"
	StatusCancelled      OrderStatus = "cancelled"
	StatusRefunded       OrderStatus = "refunded"
)

// Terminal reports whether no handler may move the order any further.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRefunded
}

type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	VenueID         string      `json:"venue_id"`
	TapID           string      `json:"tap_id"`
	BeerID          string      `json:"beer_id"`
	Quantity        int         `json:"quantity"`
	PourSizeOz      float64     `json:"pour_size_oz"`
	Status          OrderStatus `json:"status"`
	PaymentIntentID *string     `json:"payment_intent_id,omitempty"`
	Token           *string     `json:"-"` // never serialized back to clients
	TokenExpiresAt  *time.Time  `json:"token_expires_at,omitempty"`
	ExpiresAt       time.Time   `json:"expires_at"`
	PaidAt          *time.Time  `json:"paid_at,omitempty"`
	RedeemedAt      *time.Time  `json:"redeemed_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
