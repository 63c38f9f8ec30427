package postgres

import (
	"context"
	"time"

	"stressless/internal/domain"
)

const sessionColumns = "id, user_id, created_at, stress_before, stress_after, exercise, notes, completion_percentage"

// LoadHistory loads the user's sessions, logins and posts, each oldest first.
func (d *DB) LoadHistory(ctx context.Context, userID string) (domain.History, error) {
	var h domain.History
	var err error

	if h.Sessions, err = d.ListSessions(ctx, userID, ""); err != nil {
		return domain.History{}, err
	}

	rows, err := d.sql.QueryContext(ctx,
		"SELECT user_id, created_at FROM login_events WHERE user_id = $1 ORDER BY created_at",
		userID,
	)
	if err != nil {
		return domain.History{}, err
	}
	defer rows.Close() //nolint:errcheck
	for rows.Next() {
		var l domain.LoginEvent
		if err := rows.Scan(&l.UserID, &l.CreatedAt); err != nil {
			return domain.History{}, err
		}
		h.Logins = append(h.Logins, l)
	}
	if err := rows.Err(); err != nil {
		return domain.History{}, err
	}

	if h.Posts, err = d.queryPosts(ctx,
		"SELECT "+postColumns+" FROM community_posts WHERE user_id = $1 ORDER BY created_at",
		userID,
	); err != nil {
		return domain.History{}, err
	}
	return h, nil
}

// SaveSessionRecord inserts rec.
func (d *DB) SaveSessionRecord(ctx context.Context, rec domain.SessionRecord) error {
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO session_records ("+sessionColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		rec.ID, rec.UserID, rec.CreatedAt.UTC(), rec.StressBefore, rec.StressAfter,
		rec.ExerciseName, rec.Notes, rec.CompletionPercentage,
	)
	return err
}

// SaveLoginEvent records a login for userID at at.
func (d *DB) SaveLoginEvent(ctx context.Context, userID string, at time.Time) error {
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO login_events (user_id, created_at) VALUES ($1, $2)",
		userID, at.UTC(),
	)
	return err
}

// ListSessions returns the user's sessions oldest first, optionally limited
// to one local calendar day.
func (d *DB) ListSessions(ctx context.Context, userID, localDay string) ([]domain.SessionRecord, error) {
	query := "SELECT " + sessionColumns + " FROM session_records WHERE user_id = $1"
	args := []any{userID}
	if localDay != "" {
		start, end, err := localDayBounds(localDay)
		if err != nil {
			return nil, err
		}
		query += " AND created_at >= $2 AND created_at < $3"
		args = append(args, start, end)
	}
	query += " ORDER BY created_at"

	rows, err := d.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.SessionRecord
	for rows.Next() {
		var r domain.SessionRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.CreatedAt, &r.StressBefore, &r.StressAfter,
			&r.ExerciseName, &r.Notes, &r.CompletionPercentage); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
