package postgres

import (
	"context"

	"pourpass/internal/model"
)

func (s *Store) InsertPourLog(ctx context.Context, entry model.PourLog) error {
	const q = `
INSERT INTO pour_log (id, order_id, tap_id, tap_number, quantity,
                      pour_size_oz, total_oz, user_id, venue_id, poured_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`
	_, err := s.db.ExecContext(ctx, q,
		entry.ID,
		entry.OrderID,
		entry.TapID,
		entry.TapNumber,
		entry.Quantity,
		entry.PourSizeOz,
		entry.TotalOz,
		entry.UserID,
		entry.VenueID,
		entry.PouredAt.UTC(),
	)
	return err
}
