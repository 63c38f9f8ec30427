package postgres

import (
	"context"

	"stressless/internal/domain"
)

// LoadCatalog returns every exercise in insertion order.
func (d *DB) LoadCatalog(ctx context.Context) ([]domain.ExerciseDefinition, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT name, description, min_level, max_level, duration_seconds FROM exercises ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.ExerciseDefinition
	for rows.Next() {
		var e domain.ExerciseDefinition
		if err := rows.Scan(&e.Name, &e.Description, &e.MinLevel, &e.MaxLevel, &e.DurationSeconds); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AddExercise inserts def. A duplicate name yields domain.ErrExerciseExists.
func (d *DB) AddExercise(ctx context.Context, def domain.ExerciseDefinition) error {
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO exercises (name, description, min_level, max_level, duration_seconds) VALUES ($1, $2, $3, $4, $5)",
		def.Name, def.Description, def.MinLevel, def.MaxLevel, def.DurationSeconds,
	)
	if isUniqueViolation(err) {
		return domain.ErrExerciseExists
	}
	return err
}

// UpdateExercise replaces the exercise stored under name.
func (d *DB) UpdateExercise(ctx context.Context, name string, def domain.ExerciseDefinition) error {
	res, err := d.sql.ExecContext(ctx,
		"UPDATE exercises SET name = $2, description = $3, min_level = $4, max_level = $5, duration_seconds = $6 WHERE name = $1",
		name, def.Name, def.Description, def.MinLevel, def.MaxLevel, def.DurationSeconds,
	)
	if isUniqueViolation(err) {
		return domain.ErrExerciseExists
	}
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeleteExercise removes the exercise stored under name.
func (d *DB) DeleteExercise(ctx context.Context, name string) error {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM exercises WHERE name = $1", name)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
