package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pourpass/internal/model"
)

const orderColumns = `
id, user_id, venue_id, tap_id, beer_id, quantity, pour_size_oz, status,
payment_intent_id, token, token_expires_at, expires_at, paid_at, redeemed_at,
created_at, updated_at`

func (s *Store) GetOrder(ctx context.Context, id string) (model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1;`
	return s.scanOrder(s.db.QueryRowContext(ctx, q, id))
}

func (s *Store) GetOrderByPaymentIntent(ctx context.Context, intentID string) (model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE payment_intent_id = $1;`
	return s.scanOrder(s.db.QueryRowContext(ctx, q, intentID))
}

func (s *Store) scanOrder(row *sql.Row) (model.Order, error) {
	var o model.Order
	var beerID sql.NullString
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.VenueID,
		&o.TapID,
		&beerID,
		&o.Quantity,
		&o.PourSizeOz,
		&o.Status,
		&o.PaymentIntentID,
		&o.Token,
		&o.TokenExpiresAt,
		&o.ExpiresAt,
		&o.PaidAt,
		&o.RedeemedAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Order{}, model.ErrNotFound
		}
		return model.Order{}, err
	}
	o.BeerID = beerID.String
	return o, nil
}

func (s *Store) MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error) {
	const q = `
UPDATE orders
SET status = 'paid',
    paid_at = $2,
    updated_at = now()
WHERE id = $1
  AND status = 'pending_payment';
`
	return s.execOne(ctx, q, id, paidAt.UTC())
}

func (s *Store) SetTokenReady(ctx context.Context, id, token string, expiresAt time.Time) (bool, error) {
	const q = `
UPDATE orders
SET status = 'ready_to_redeem',
    token = $2,
    token_expires_at = $3,
    updated_at = now()
WHERE id = $1
  AND status = 'paid';
`
	return s.execOne(ctx, q, id, token, expiresAt.UTC())
}

func (s *Store) TransitionStatus(ctx context.Context, id string, from, to model.OrderStatus, at time.Time) (bool, error) {
	const q = `
UPDATE orders
SET status = $3,
    redeemed_at = CASE WHEN $3 = 'redeemed' THEN $4 ELSE redeemed_at END,
    updated_at = now()
WHERE id = $1
  AND status = $2;
`
	return s.execOne(ctx, q, id, string(from), string(to), at.UTC())
}

func (s *Store) Cancel(ctx context.Context, id string) (bool, error) {
	const q = `
UPDATE orders
SET status = 'cancelled',
    updated_at = now()
WHERE id = $1
  AND status IN ('pending_payment', 'paid');
`
	return s.execOne(ctx, q, id)
}

func (s *Store) MarkRefunded(ctx context.Context, id string) (bool, error) {
	const q = `
UPDATE orders
SET status = 'refunded',
    updated_at = now()
WHERE id = $1
  AND status <> 'refunded';
`
	return s.execOne(ctx, q, id)
}

// execOne runs a conditional update and reports whether it hit its row.
func (s *Store) execOne(ctx context.Context, q string, args ...any) (bool, error) {
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, err
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return ra == 1, nil
}
