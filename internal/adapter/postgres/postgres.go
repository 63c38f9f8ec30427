// Package postgres implements the domain repositories using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"stressless/internal/domain"
)

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql *sql.DB
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.CatalogRepository = (*DB)(nil)
var _ domain.HistoryRepository = (*DB)(nil)
var _ domain.PostRepository = (*DB)(nil)
var _ domain.AchievementRepository = (*DB)(nil)
var _ domain.AuthSessionRepository = (*SessionRepo)(nil)

// Open connects to PostgreSQL, pings, runs migrations and seeds the default
// exercise catalog into an empty exercises table.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := d.seedExercises(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Ping checks the connection.
func (d *DB) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS users (id TEXT PRIMARY KEY, username TEXT NOT NULL, password_hash TEXT NOT NULL DEFAULT '', role TEXT NOT NULL DEFAULT 'standard' CHECK(role IN ('standard','admin')), created_at TIMESTAMPTZ NOT NULL);",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(LOWER(username));",
		"CREATE TABLE IF NOT EXISTS auth_sessions (token TEXT PRIMARY KEY, user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE, expires_at TIMESTAMPTZ NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_auth_sessions_expires_at ON auth_sessions(expires_at);",
		"CREATE TABLE IF NOT EXISTS exercises (id BIGSERIAL PRIMARY KEY, name TEXT UNIQUE NOT NULL, description TEXT NOT NULL DEFAULT '', min_level INT NOT NULL CHECK(min_level BETWEEN 1 AND 10), max_level INT NOT NULL CHECK(max_level BETWEEN 1 AND 10), duration_seconds INT NOT NULL DEFAULT 300, CHECK(min_level <= max_level));",
		"CREATE TABLE IF NOT EXISTS session_records (id TEXT PRIMARY KEY, user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE, created_at TIMESTAMPTZ NOT NULL, stress_before INT NOT NULL CHECK(stress_before BETWEEN 1 AND 10), stress_after INT NOT NULL CHECK(stress_after BETWEEN 1 AND 10), exercise TEXT NOT NULL, notes TEXT NOT NULL DEFAULT '', completion_percentage DOUBLE PRECISION NOT NULL CHECK(completion_percentage BETWEEN 0 AND 100));",
		"CREATE INDEX IF NOT EXISTS idx_session_records_user_created ON session_records(user_id, created_at);",
		"CREATE TABLE IF NOT EXISTS login_events (id BIGSERIAL PRIMARY KEY, user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_login_events_user_created ON login_events(user_id, created_at);",
		"CREATE TABLE IF NOT EXISTS community_posts (id TEXT PRIMARY KEY, user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE, content TEXT NOT NULL, created_at TIMESTAMPTZ NOT NULL, comments TEXT NOT NULL DEFAULT '');",
		"CREATE INDEX IF NOT EXISTS idx_community_posts_created_at ON community_posts(created_at);",
		"CREATE TABLE IF NOT EXISTS achievement_statuses (user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE, name TEXT NOT NULL, earned BOOLEAN NOT NULL DEFAULT FALSE, earned_at TIMESTAMPTZ, PRIMARY KEY (user_id, name));",
	}

	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (d *DB) seedExercises(ctx context.Context) error {
	var count int
	if err := d.sql.QueryRowContext(ctx, "SELECT COUNT(1) FROM exercises;").Scan(&count); err != nil {
		return fmt.Errorf("seed: count exercises: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, e := range domain.DefaultExercises() {
		if err := d.AddExercise(ctx, e); err != nil && !errors.Is(err, domain.ErrExerciseExists) {
			return fmt.Errorf("seed: %s: %w", e.Name, err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// localDayBounds returns the UTC bounds of a "2006-01-02" day in the server's zone.
func localDayBounds(localDay string) (time.Time, time.Time, error) {
	dayStart, err := time.ParseInLocation("2006-01-02", localDay, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return dayStart.UTC(), dayStart.AddDate(0, 0, 1).UTC(), nil
}
