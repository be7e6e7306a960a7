package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"pourpass/internal/model"
)

// Append inserts one ledger entry. The ledger is append-only; there is no
// update or delete path anywhere in this package.
func (s *Store) Append(ctx context.Context, orderID, eventType string, metadata map[string]any) error {
	if metadata == nil {
		metadata = map[string]any{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	// The partial unique index on (event_type, upstream_event_id) makes a
	// raced duplicate delivery land here as a conflict instead of a second
	// audit row.
	const q = `
INSERT INTO order_events (id, order_id, event_type, metadata)
VALUES ($1, $2, $3, $4)
ON CONFLICT (event_type, (metadata ->> 'upstream_event_id'))
    WHERE metadata ? 'upstream_event_id'
    DO NOTHING;
`
	_, err = s.db.ExecContext(ctx, q, uuid.NewString(), orderID, eventType, raw)
	return err
}

// SeenUpstreamEvent is the idempotency lookup: has a ledger entry of this
// type already recorded this upstream event id.
func (s *Store) SeenUpstreamEvent(ctx context.Context, eventType, upstreamID string) (bool, error) {
	const q = `
SELECT EXISTS (
    SELECT 1
    FROM order_events
    WHERE event_type = $1
      AND metadata ->> 'upstream_event_id' = $2
);
`
	var seen bool
	err := s.db.QueryRowContext(ctx, q, eventType, upstreamID).Scan(&seen)
	return seen, err
}

func (s *Store) ListEvents(ctx context.Context, orderID string) ([]model.OrderEvent, error) {
	const q = `
SELECT id, order_id, event_type, metadata, created_at
FROM order_events
WHERE order_id = $1
ORDER BY created_at;
`
	rows, err := s.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.OrderEvent
	for rows.Next() {
		var e model.OrderEvent
		var raw []byte
		if err := rows.Scan(&e.ID, &e.OrderID, &e.EventType, &raw, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &e.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
