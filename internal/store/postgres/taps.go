package postgres

import (
	"context"
	"database/sql"
	"errors"

	"pourpass/internal/model"
)

func (s *Store) GetTap(ctx context.Context, id string) (model.Tap, error) {
	const q = `
SELECT id, venue_id, tap_number, beer_id, status, oz_remaining,
       low_threshold_oz, temp_f, temp_ok, temp_threshold_f
FROM taps
WHERE id = $1;
`
	var t model.Tap
	var beerID sql.NullString
	var tempF, tempThreshold sql.NullFloat64
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&t.ID,
		&t.VenueID,
		&t.TapNumber,
		&beerID,
		&t.Status,
		&t.OzRemaining,
		&t.LowThresholdOz,
		&tempF,
		&t.TempOK,
		&tempThreshold,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Tap{}, model.ErrNotFound
		}
		return model.Tap{}, err
	}
	t.BeerID = beerID.String
	t.TempF = tempF.Float64
	t.TempThresholdF = tempThreshold.Float64
	return t, nil
}

// RestoreVolume increments in a single statement so concurrent
// compensations cannot lose an update.
func (s *Store) RestoreVolume(ctx context.Context, tapID string, oz float64) error {
	const q = `
UPDATE taps
SET oz_remaining = oz_remaining + $2
WHERE id = $1;
`
	_, err := s.db.ExecContext(ctx, q, tapID, oz)
	return err
}
