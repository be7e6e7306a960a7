// Package postgres implements the order, tap, ledger, pour-log and identity
// repositories on database/sql with the pgx driver. All status writes are
// conditional updates; the caller learns via the bool return whether the
// expected prior state still held.
package postgres

import (
	"context"
	"database/sql"
	"time"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}
