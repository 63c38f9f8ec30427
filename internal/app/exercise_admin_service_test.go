package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"stressless/internal/adapter/memory"
	"stressless/internal/app"
	"stressless/internal/domain"
)

var admin = &domain.User{ID: "admin", Username: "manager", Role: domain.RoleAdmin}

func TestExerciseAdmin_CRUD(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	svc := app.NewExerciseAdminService(db)

	def := domain.ExerciseDefinition{Name: " Box Breathing ", Description: "4-4-4-4", MinLevel: 4, MaxLevel: 8}
	require.NoError(t, svc.Add(ctx, admin, def))
	require.ErrorIs(t, svc.Add(ctx, admin, def), domain.ErrExerciseExists)

	defs, err := svc.List(ctx)
	require.NoError(t, err)
	last := defs[len(defs)-1]
	require.Equal(t, "Box Breathing", last.Name)
	require.Equal(t, domain.DefaultDurationSeconds, last.DurationSeconds)

	last.MaxLevel = 10
	require.NoError(t, svc.Update(ctx, admin, "Box Breathing", last))
	require.ErrorIs(t, svc.Update(ctx, admin, "Nope", last), domain.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, admin, "Box Breathing"))
	require.ErrorIs(t, svc.Delete(ctx, admin, "Box Breathing"), domain.ErrNotFound)
}

func TestExerciseAdmin_Validation(t *testing.T) {
	svc := app.NewExerciseAdminService(memory.New())
	err := svc.Add(context.Background(), admin, domain.ExerciseDefinition{Name: "Bad", MinLevel: 7, MaxLevel: 3})
	require.ErrorIs(t, err, domain.ErrInvalidExercise)
}

func TestExerciseAdmin_RequiresAdmin(t *testing.T) {
	svc := app.NewExerciseAdminService(memory.New())
	user := &domain.User{ID: "u1", Role: domain.RoleStandard}
	def := domain.ExerciseDefinition{Name: "X", MinLevel: 1, MaxLevel: 2}
	require.ErrorIs(t, svc.Add(context.Background(), user, def), app.ErrForbidden)
	require.ErrorIs(t, svc.Update(context.Background(), nil, "X", def), app.ErrForbidden)
	require.ErrorIs(t, svc.Delete(context.Background(), user, "X"), app.ErrForbidden)
}

func TestExerciseAdmin_PersistenceError(t *testing.T) {
	boom := errors.New("constraint")
	repo := &mockCatalogRepo{addFn: func(context.Context, domain.ExerciseDefinition) error { return boom }}
	svc := app.NewExerciseAdminService(repo)
	err := svc.Add(context.Background(), admin, domain.ExerciseDefinition{Name: "X", MinLevel: 1, MaxLevel: 2})
	require.True(t, domain.IsPersistence(err))
}
