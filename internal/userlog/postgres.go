package userlog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists name confirmations in PostgreSQL for deployments
// that already run one.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	_, err = pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT now(),
		name TEXT NOT NULL,
		session_id TEXT NOT NULL
	)`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init users table: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Record(ctx context.Context, name, sessionID string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (timestamp, name, session_id) VALUES ($1, $2, $3)`,
		time.Now().UTC(),
		name,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("record user: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, timestamp, name, session_id FROM users ORDER BY id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Name, &e.SessionID); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}

	return entries, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
