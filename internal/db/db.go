// Package db is the Postgres-backed session store, used when DATABASE_URL
// is configured so connected accounts survive a restart.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// RunMigrations runs database migrations
func (s *Store) RunMigrations(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			chat_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (chat_id, key)
		);
	`)
	return err
}

func (s *Store) Get(ctx context.Context, chatID, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		"SELECT value FROM sessions WHERE chat_id = $1 AND key = $2",
		chatID, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, chatID, key, value string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (chat_id, key, value) VALUES ($1, $2, $3)
		 ON CONFLICT (chat_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = CURRENT_TIMESTAMP`,
		chatID, key, value,
	)
	return err
}

func (s *Store) Delete(ctx context.Context, chatID, key string) error {
	_, err := s.pool.Exec(ctx,
		"DELETE FROM sessions WHERE chat_id = $1 AND key = $2",
		chatID, key,
	)
	return err
}
