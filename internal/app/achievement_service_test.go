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

func TestEvaluate_EarnsOnceAndKeepsTimestamp(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	clock := &fixedClock{t: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
	p := &recordingPresenter{}
	engine := app.NewAchievementService(db, db, app.WithClock(clock.Now), app.WithPresenter(p))
	require.NoError(t, engine.Seed(ctx, "u1"))
	require.NoError(t, db.SavePost(ctx, domain.CommunityPost{ID: "p", UserID: "u1", Content: "hi", CreatedAt: clock.Now()}))

	earned, err := engine.Evaluate(ctx, "u1", app.TriggerPost)
	require.NoError(t, err)
	require.Len(t, earned, 1)
	require.Equal(t, domain.AchievementFirstPost, earned[0].Name)
	firstAt := earned[0].EarnedAt

	clock.Set(clock.Now().Add(72 * time.Hour))
	earned, err = engine.Evaluate(ctx, "u1", app.TriggerPost)
	require.NoError(t, err)
	require.Empty(t, earned)

	board, err := engine.Board(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, board, 7)
	for _, v := range board {
		if v.Name == domain.AchievementFirstPost {
			require.True(t, v.Earned)
			require.True(t, v.EarnedAt.Equal(firstAt))
		} else {
			require.False(t, v.Earned, v.Name)
		}
	}
	require.Len(t, p.ofKind("achievement"), 1)
}

func TestEvaluate_StopsAtFirstSaveFailure(t *testing.T) {
	boom := errors.New("write failed")
	var saved []string
	history := &mockHistoryRepo{loadFn: func(context.Context, string) (domain.History, error) {
		return domain.History{
			Posts:    []domain.CommunityPost{{ID: "p"}},
			Sessions: make([]domain.SessionRecord, 10),
		}, nil
	}}
	statuses := &mockAchievementRepo{saveFn: func(_ context.Context, _, name string, _ time.Time) error {
		if name == domain.AchievementFirstPost {
			return boom
		}
		saved = append(saved, name)
		return nil
	}}
	p := &recordingPresenter{}
	engine := app.NewAchievementService(history, statuses, app.WithPresenter(p))

	earned, err := engine.Evaluate(context.Background(), "u1", app.TriggerSession)
	var evalErr *app.EvaluationError
	require.ErrorAs(t, err, &evalErr)
	require.Equal(t, app.TriggerSession, evalErr.Trigger)
	require.True(t, domain.IsPersistence(err))
	require.ErrorIs(t, err, boom)

	// Ten Exercises precedes First Community Post in table order.
	require.Equal(t, []string{domain.AchievementTenExercises}, saved)
	require.Len(t, earned, 1)
	require.Len(t, p.ofKind("achievement"), 1)
}

func TestEvaluate_LoadFailureIsReported(t *testing.T) {
	boom := errors.New("read failed")
	history := &mockHistoryRepo{loadFn: func(context.Context, string) (domain.History, error) {
		return domain.History{}, boom
	}}
	engine := app.NewAchievementService(history, &mockAchievementRepo{})
	earned, err := engine.Evaluate(context.Background(), "u1", app.TriggerLogin)
	require.Nil(t, earned)
	require.ErrorIs(t, err, boom)
	var evalErr *app.EvaluationError
	require.ErrorAs(t, err, &evalErr)
}

func TestEvaluate_RunsDespiteCancelledContext(t *testing.T) {
	db := memory.New()
	engine := app.NewAchievementService(db, db)
	require.NoError(t, db.SavePost(context.Background(), domain.CommunityPost{ID: "p", UserID: "u1", CreatedAt: time.Now()}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	earned, err := engine.Evaluate(ctx, "u1", app.TriggerPost)
	require.NoError(t, err)
	require.Len(t, earned, 1)
}

func TestEvaluate_StressReductionMaster(t *testing.T) {
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	for _, tc := range []struct {
		name        string
		middleAfter int
		want        bool
	}{
		{"all three decreasing", 4, true},
		{"middle unchanged", 7, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			db := memory.New()
			ctx := context.Background()
			for i, pair := range [][2]int{{8, 6}, {7, tc.middleAfter}, {6, 3}} {
				require.NoError(t, db.SaveSessionRecord(ctx, domain.SessionRecord{
					ID: string(rune('a' + i)), UserID: "u1", CreatedAt: base.Add(time.Duration(i) * time.Hour),
					StressBefore: pair[0], StressAfter: pair[1], ExerciseName: "Body Scan",
				}))
			}
			engine := app.NewAchievementService(db, db, app.WithClock(func() time.Time { return base.Add(4 * time.Hour) }))
			earned, err := engine.Evaluate(ctx, "u1", app.TriggerSession)
			require.NoError(t, err)
			got := false
			for _, e := range earned {
				if e.Name == domain.AchievementStressReductionMaster {
					got = true
				}
			}
			require.Equal(t, tc.want, got)
		})
	}
}
