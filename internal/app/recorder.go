package app

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stressless/internal/domain"
	"stressless/internal/metrics"
)

// Submission is a finished or abandoned attempt together with the user's
// answers from the feedback form.
type Submission struct {
	Context     domain.SessionContext
	StressAfter int
	Notes       string
}

// FinalizeResult is returned by Recorder.Finalize. Record keeps the full
// precision completion; DisplayCompletion is rounded to one decimal.
type FinalizeResult struct {
	Record            domain.SessionRecord `json:"record"`
	DisplayCompletion float64              `json:"completion"`
	Earned            []EarnedAchievement  `json:"earned"`
}

// Recorder turns attempts into session records and runs the achievement
// rules after each successful write.
type Recorder struct {
	catalog domain.CatalogRepository
	history domain.HistoryRepository
	engine  *AchievementService
	opts    options
}

// NewRecorder creates a Recorder.
func NewRecorder(catalog domain.CatalogRepository, history domain.HistoryRepository, engine *AchievementService, opts ...Option) *Recorder {
	return &Recorder{catalog: catalog, history: history, engine: engine, opts: newOptions(opts)}
}

// Finalize persists sub as a SessionRecord and evaluates achievements while
// holding the user's lock.
//
// A failed write returns a *domain.PersistenceError and nothing else runs. A
// failed evaluation returns the result together with an *EvaluationError;
// the record stays committed.
func (r *Recorder) Finalize(ctx context.Context, sub Submission) (*FinalizeResult, error) {
	sc := sub.Context
	if !sc.HasExercise() {
		return nil, domain.ErrNoActiveExercise
	}
	if err := domain.ValidateStressLevel(sc.StressBefore); err != nil {
		return nil, err
	}
	if err := domain.ValidateStressLevel(sub.StressAfter); err != nil {
		return nil, err
	}

	nominal, err := r.nominalSeconds(ctx, sc)
	if err != nil {
		return nil, err
	}
	completion := domain.CompletionPercentage(nominal, sc.RemainingSeconds, sc.Ticked)

	unlock, err := r.opts.locker.Lock(ctx, sc.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec := domain.SessionRecord{
		ID:                   uuid.NewString(),
		UserID:               sc.UserID,
		CreatedAt:            r.opts.now(),
		StressBefore:         sc.StressBefore,
		StressAfter:          sub.StressAfter,
		ExerciseName:         sc.Exercise.Name,
		Notes:                sub.Notes,
		CompletionPercentage: completion,
	}
	if err := r.history.SaveSessionRecord(ctx, rec); err != nil {
		return nil, domain.Persistence("save session record", err)
	}

	display := domain.RoundTenth(completion)
	metrics.RecordSessionFinalized(completion)
	r.opts.logger.Info("session finalized",
		zap.String("user_id", rec.UserID),
		zap.String("session_id", rec.ID),
		zap.String("exercise", rec.ExerciseName),
		zap.Float64("completion", display))
	r.opts.presenter.OnSessionFinalized(rec.UserID, display)

	res := &FinalizeResult{Record: rec, DisplayCompletion: display}
	earned, err := r.engine.evaluateLocked(ctx, rec.UserID, TriggerSession)
	res.Earned = earned
	return res, err
}

// nominalSeconds prefers the duration the countdown was started with and
// otherwise asks the live catalog, which yields the default for names it no
// longer knows.
func (r *Recorder) nominalSeconds(ctx context.Context, sc domain.SessionContext) (int, error) {
	if sc.NominalSeconds > 0 {
		return sc.NominalSeconds, nil
	}
	defs, err := r.catalog.LoadCatalog(ctx)
	if err != nil {
		return 0, domain.Persistence("load catalog", err)
	}
	d, err := domain.NewCatalog(defs, domain.DefaultFallbackLevel).DurationOf(sc.Exercise.Name)
	if errors.Is(err, domain.ErrUnknownExercise) {
		r.opts.logger.Warn("exercise missing from catalog, using default duration",
			zap.String("exercise", sc.Exercise.Name),
			zap.Int("duration_seconds", d))
	}
	return d, nil
}
