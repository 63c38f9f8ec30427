package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"stressless/internal/domain"
)

// LoadAchievementStatuses returns the user's statuses ordered by name.
func (d *DB) LoadAchievementStatuses(ctx context.Context, userID string) ([]domain.AchievementStatus, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT user_id, name, earned, earned_at FROM achievement_statuses WHERE user_id = $1 ORDER BY name",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.AchievementStatus
	for rows.Next() {
		var s domain.AchievementStatus
		var earnedAt sql.NullTime
		if err := rows.Scan(&s.UserID, &s.Name, &s.Earned, &earnedAt); err != nil {
			return nil, err
		}
		if earnedAt.Valid {
			t := earnedAt.Time
			s.EarnedAt = &t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SaveAchievementStatus marks name earned. An existing earn timestamp is kept.
func (d *DB) SaveAchievementStatus(ctx context.Context, userID, name string, earnedAt time.Time) error {
	_, err := d.sql.ExecContext(ctx, `
		INSERT INTO achievement_statuses (user_id, name, earned, earned_at)
		VALUES ($1, $2, TRUE, $3)
		ON CONFLICT (user_id, name) DO UPDATE
		SET earned = TRUE,
		    earned_at = COALESCE(achievement_statuses.earned_at, EXCLUDED.earned_at)`,
		userID, name, earnedAt.UTC(),
	)
	return err
}

// SeedAchievementStatuses adds unearned statuses for names the user lacks.
func (d *DB) SeedAchievementStatuses(ctx context.Context, userID string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	_, err := d.sql.ExecContext(ctx, `
		INSERT INTO achievement_statuses (user_id, name)
		SELECT $1, n FROM unnest($2::text[]) AS n
		ON CONFLICT (user_id, name) DO NOTHING`,
		userID, pq.Array(names),
	)
	return err
}
