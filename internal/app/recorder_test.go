package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stressless/internal/adapter/memory"
	"stressless/internal/app"
	"stressless/internal/domain"
)

var bodyScan = domain.ExerciseDefinition{Name: "Body Scan", MinLevel: 7, MaxLevel: 10, DurationSeconds: 300}

func contextWith(remaining int, ticked bool) domain.SessionContext {
	sc := domain.NewSessionContext("u1", 8, bodyScan).Started()
	if ticked {
		sc = sc.Tick(remaining)
	}
	return sc.Stopped()
}

func newRecorder(db *memory.DB, opts ...app.Option) *app.Recorder {
	engine := app.NewAchievementService(db, db, opts...)
	return app.NewRecorder(db, db, engine, opts...)
}

func TestFinalize_CompletionPercentage(t *testing.T) {
	tests := []struct {
		name      string
		remaining int
		ticked    bool
		stored    float64
		display   float64
	}{
		{"ran to the end", 0, true, 100, 100},
		{"never ticked", 300, false, 0, 0},
		{"half way", 150, true, 50, 50},
		{"one second", 299, true, 100.0 / 300.0, 0.3},
		{"two thirds", 100, true, 200.0 / 3.0, 66.7},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := memory.New()
			p := &recordingPresenter{}
			rec := newRecorder(db, app.WithPresenter(p))

			res, err := rec.Finalize(context.Background(), app.Submission{
				Context:     contextWith(tc.remaining, tc.ticked),
				StressAfter: 5,
				Notes:       "felt better",
			})
			require.NoError(t, err)
			require.InDelta(t, tc.stored, res.Record.CompletionPercentage, 1e-9)
			require.Equal(t, tc.display, res.DisplayCompletion)

			stored, _ := db.ListSessions(context.Background(), "u1", "")
			require.Len(t, stored, 1)
			require.InDelta(t, tc.stored, stored[0].CompletionPercentage, 1e-9)
			require.Equal(t, "felt better", stored[0].Notes)

			fin := p.ofKind("finalized")
			require.Len(t, fin, 1)
			require.Equal(t, tc.display, fin[0].value)
		})
	}
}

func TestFinalize_TenthSessionEarnsOnThatCall(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	clock := &fixedClock{t: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	rec := newRecorder(db, app.WithClock(clock.Now))

	for i := 1; i <= 10; i++ {
		// Spread across months so no streak rules interfere.
		clock.Set(time.Date(2024, time.Month(1+i), 1, 9, 0, 0, 0, time.UTC))
		res, err := rec.Finalize(ctx, app.Submission{Context: contextWith(0, true), StressAfter: 8})
		require.NoError(t, err)
		if i < 10 {
			require.Empty(t, res.Earned, "session %d", i)
			continue
		}
		require.Len(t, res.Earned, 1)
		require.Equal(t, domain.AchievementTenExercises, res.Earned[0].Name)
	}
}

func TestFinalize_EvaluationFailureKeepsRecord(t *testing.T) {
	db := memory.New()
	boom := errors.New("achievement table locked")
	for i := 0; i < 9; i++ {
		require.NoError(t, db.SaveSessionRecord(context.Background(), domain.SessionRecord{
			ID: string(rune('a' + i)), UserID: "u1", ExerciseName: "Body Scan",
		}))
	}
	statuses := &mockAchievementRepo{saveFn: func(context.Context, string, string, time.Time) error { return boom }}
	engine := app.NewAchievementService(db, statuses)
	rec := app.NewRecorder(db, db, engine)

	res, err := rec.Finalize(context.Background(), app.Submission{Context: contextWith(0, true), StressAfter: 4})
	require.NotNil(t, res)
	var evalErr *app.EvaluationError
	require.ErrorAs(t, err, &evalErr)
	require.ErrorIs(t, err, boom)

	stored, _ := db.ListSessions(context.Background(), "u1", "")
	require.Len(t, stored, 10, "the session record must survive a failed evaluation")
	require.Equal(t, res.Record.ID, stored[len(stored)-1].ID)
}

func TestFinalize_SaveFailureSkipsEvaluation(t *testing.T) {
	boom := errors.New("disk full")
	loaded := false
	history := &mockHistoryRepo{
		saveFn: func(context.Context, domain.SessionRecord) error { return boom },
		loadFn: func(context.Context, string) (domain.History, error) {
			loaded = true
			return domain.History{}, nil
		},
	}
	p := &recordingPresenter{}
	engine := app.NewAchievementService(history, &mockAchievementRepo{})
	rec := app.NewRecorder(&mockCatalogRepo{}, history, engine, app.WithPresenter(p))

	res, err := rec.Finalize(context.Background(), app.Submission{Context: contextWith(0, true), StressAfter: 4})
	require.Nil(t, res)
	require.True(t, domain.IsPersistence(err))
	require.ErrorIs(t, err, boom)
	require.False(t, loaded, "no evaluation after a failed write")
	require.Empty(t, p.ofKind("finalized"))
}

func TestFinalize_UnknownDurationFallsBackToDefault(t *testing.T) {
	history := &mockHistoryRepo{}
	rec := app.NewRecorder(catalogOf(), history, app.NewAchievementService(history, &mockAchievementRepo{}))

	sc := domain.SessionContext{
		UserID:           "u1",
		StressBefore:     6,
		Exercise:         domain.ExerciseDefinition{Name: "Retired Exercise"},
		RemainingSeconds: 150,
		Ticked:           true,
	}
	res, err := rec.Finalize(context.Background(), app.Submission{Context: sc, StressAfter: 5})
	require.NoError(t, err)
	require.Equal(t, 50.0, res.Record.CompletionPercentage)
}

func TestFinalize_Validation(t *testing.T) {
	db := memory.New()
	rec := newRecorder(db)

	_, err := rec.Finalize(context.Background(), app.Submission{StressAfter: 5})
	require.ErrorIs(t, err, domain.ErrNoActiveExercise)

	_, err = rec.Finalize(context.Background(), app.Submission{Context: contextWith(0, true), StressAfter: 11})
	require.ErrorIs(t, err, domain.ErrInvalidStressLevel)

	stored, _ := db.ListSessions(context.Background(), "u1", "")
	require.Empty(t, stored)
}
