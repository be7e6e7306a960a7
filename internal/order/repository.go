package order

import (
	"context"
	"time"

	"pourpass/internal/model"
	"pourpass/internal/token"
)

// OrderRepository is the conditional-update surface over orders. Every
// status-changing method is a compare-and-swap: it reports false when the
// expected prior state no longer held at write time.
type OrderRepository interface {
	GetOrder(ctx context.Context, id string) (model.Order, error)
	GetOrderByPaymentIntent(ctx context.Context, intentID string) (model.Order, error)

	// MarkPaid moves pending_payment -> paid and stamps paid_at.
	MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error)

	// SetTokenReady moves paid -> ready_to_redeem, writing the capability
	// token and its expiry onto the row.
	SetTokenReady(ctx context.Context, id, token string, expiresAt time.Time) (bool, error)

	// TransitionStatus applies from -> to only if the stored status still
	// equals from. Stamps redeemed_at when to is redeemed.
	TransitionStatus(ctx context.Context, id string, from, to model.OrderStatus, at time.Time) (bool, error)

	// Cancel moves pending_payment or paid to cancelled. Orders that
	// already advanced to redemption are never cancelled.
	Cancel(ctx context.Context, id string) (bool, error)

	// MarkRefunded moves any status except refunded to refunded.
	MarkRefunded(ctx context.Context, id string) (bool, error)
}

type TapRepository interface {
	GetTap(ctx context.Context, id string) (model.Tap, error)

	// RestoreVolume atomically increments oz_remaining. Used only by
	// payment-failure compensation.
	RestoreVolume(ctx context.Context, tapID string, oz float64) error
}

// LedgerRepository is the append-only order-event ledger.
type LedgerRepository interface {
	Append(ctx context.Context, orderID, eventType string, metadata map[string]any) error
	SeenUpstreamEvent(ctx context.Context, eventType, upstreamID string) (bool, error)
	ListEvents(ctx context.Context, orderID string) ([]model.OrderEvent, error)
}

type PourLogRepository interface {
	InsertPourLog(ctx context.Context, entry model.PourLog) error
}

// TokenIssuer mints and validates capability tokens. Satisfied by
// *token.Issuer.
type TokenIssuer interface {
	Issue(orderID, tapID, venueID, userID string) (string, time.Time, error)
	Verify(raw string) (token.Claims, error)
}
