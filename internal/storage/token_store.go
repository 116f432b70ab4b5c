// Package storage persists the session token the way a browser persists
// localStorage: one value per key, scoped to the backend origin.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	applog "budget/internal/log"

	_ "modernc.org/sqlite"
)

// TokenKey is the fixed storage key of the session token.
const TokenKey = "budget_tracker_auth_token"

// TokenStore owns the session token. Get reports absence with ok=false.
type TokenStore interface {
	Store(ctx context.Context, token string) error
	Get(ctx context.Context) (token string, ok bool, err error)
	Remove(ctx context.Context) error
}

// Origin reduces a backend URL to scheme://host[:port].
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("backend url %q has no scheme or host", rawURL)
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), nil
}

// SQLiteTokenStore keeps the token in a kv table bound to one origin.
type SQLiteTokenStore struct {
	db     *sql.DB
	origin string
	logger *applog.Logger
}

var _ TokenStore = (*SQLiteTokenStore)(nil)

func NewSQLiteTokenStore(dbPath, origin string, logger *applog.Logger) (*SQLiteTokenStore, error) {
	if origin == "" {
		return nil, errors.New("token store needs an origin")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentStorage)

	if _, err := migrateSchema(dbPath, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteTokenStore{
		db:     db,
		origin: origin,
		logger: logger.With(applog.FieldOrigin, origin),
	}, nil
}

func (s *SQLiteTokenStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteTokenStore) Store(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (origin, key, value, updated_at)
		 VALUES (?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		 ON CONFLICT (origin, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.origin, TokenKey, token)
	if err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	s.logger.DebugContext(ctx, "Session token stored")
	return nil
}

func (s *SQLiteTokenStore) Get(ctx context.Context) (string, bool, error) {
	var token string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE origin = ? AND key = ?`, s.origin, TokenKey).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get token: %w", err)
	}
	return token, true, nil
}

func (s *SQLiteTokenStore) Remove(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE origin = ? AND key = ?`, s.origin, TokenKey); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	s.logger.DebugContext(ctx, "Session token removed")
	return nil
}
