package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Conn is the subset of a pgx pool the stores use.
type Conn interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Connect opens a pgx pool for connStr and pings it.
func Connect(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS drafts (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'in_progress',
	start_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	end_time   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS draft_decks (
	draft_id    UUID NOT NULL REFERENCES drafts (id) ON DELETE CASCADE,
	chair       INT NOT NULL,
	player_name TEXT NOT NULL,
	deck_hash   TEXT NOT NULL,
	main        JSONB NOT NULL,
	sideboard   JSONB NOT NULL,
	basic_lands JSONB NOT NULL,
	PRIMARY KEY (draft_id, chair)
);

CREATE TABLE IF NOT EXISTS draft_events (
	draft_id    UUID NOT NULL REFERENCES drafts (id) ON DELETE CASCADE,
	event_index INT NOT NULL,
	chair       INT NOT NULL,
	event_type  TEXT NOT NULL,
	payload     JSONB,
	created_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (draft_id, event_index)
);
`

// EnsureSchema creates the draft tables when they do not exist.
func EnsureSchema(ctx context.Context, db Conn) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
