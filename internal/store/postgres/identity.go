package postgres

import (
	"context"
	"time"

	"pourpass/internal/model"
)

func (s *Store) MarkVerified(ctx context.Context, userID, sessionID string, at time.Time) error {
	const q = `
UPDATE users
SET verified = TRUE,
    verification_session_id = $2,
    verified_at = $3
WHERE id = $1;
`
	_, err := s.db.ExecContext(ctx, q, userID, sessionID, at.UTC())
	return err
}

func (s *Store) SetStatus(ctx context.Context, sessionID, userID string, status model.VerificationStatus) error {
	const q = `
INSERT INTO verification_attempts (session_id, user_id, status)
VALUES ($1, $2, $3)
ON CONFLICT (session_id) DO UPDATE
SET status = EXCLUDED.status,
    updated_at = now();
`
	_, err := s.db.ExecContext(ctx, q, sessionID, userID, string(status))
	return err
}
