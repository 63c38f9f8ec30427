package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"stressless/internal/domain"
	"stressless/internal/metrics"
)

// Triggers that start an achievement evaluation.
const (
	TriggerLogin   = "login"
	TriggerSession = "session"
	TriggerPost    = "post"
)

// EvaluationError reports an achievement evaluation that did not complete.
// The write that triggered it has already been committed.
type EvaluationError struct {
	UserID  string
	Trigger string
	Err     error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("achievement evaluation after %s for user %s: %v", e.Trigger, e.UserID, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// EarnedAchievement is a badge awarded by one evaluation.
type EarnedAchievement struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	EarnedAt    time.Time `json:"earnedAt"`
}

// AchievementView is one row of a user's badge board.
type AchievementView struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Earned      bool       `json:"earned"`
	EarnedAt    *time.Time `json:"earnedAt,omitempty"`
}

// AchievementService evaluates the achievement rules and reads badge state.
type AchievementService struct {
	history  domain.HistoryRepository
	statuses domain.AchievementRepository
	opts     options
}

// NewAchievementService creates an AchievementService.
func NewAchievementService(history domain.HistoryRepository, statuses domain.AchievementRepository, opts ...Option) *AchievementService {
	return &AchievementService{history: history, statuses: statuses, opts: newOptions(opts)}
}

// Seed creates an unearned status for every defined achievement.
func (s *AchievementService) Seed(ctx context.Context, userID string) error {
	err := s.statuses.SeedAchievementStatuses(ctx, userID, domain.AchievementNames())
	return domain.Persistence("seed achievement statuses", err)
}

// Evaluate takes the user's lock and runs the rules after trigger.
func (s *AchievementService) Evaluate(ctx context.Context, userID, trigger string) ([]EarnedAchievement, error) {
	ctx = context.WithoutCancel(ctx)
	unlock, err := s.opts.locker.Lock(ctx, userID)
	if err != nil {
		return nil, &EvaluationError{UserID: userID, Trigger: trigger, Err: err}
	}
	defer unlock()
	return s.evaluateLocked(ctx, userID, trigger)
}

// evaluateLocked recomputes the aggregates and awards every rule that newly
// holds, in table order. It stops at the first failed save; awards persisted
// before the failure are returned alongside the error. The caller holds the
// user's lock.
func (s *AchievementService) evaluateLocked(ctx context.Context, userID, trigger string) ([]EarnedAchievement, error) {
	ctx = context.WithoutCancel(ctx)
	fail := func(err error) error {
		metrics.RecordEvaluationFailure()
		s.opts.logger.Error("achievement evaluation failed",
			zap.String("user_id", userID),
			zap.String("trigger", trigger),
			zap.Error(err))
		return &EvaluationError{UserID: userID, Trigger: trigger, Err: err}
	}

	h, err := s.history.LoadHistory(ctx, userID)
	if err != nil {
		return nil, fail(domain.Persistence("load history", err))
	}
	statuses, err := s.statuses.LoadAchievementStatuses(ctx, userID)
	if err != nil {
		return nil, fail(domain.Persistence("load achievement statuses", err))
	}

	now := s.opts.now()
	agg := domain.ComputeAggregates(h, now)

	var earned []EarnedAchievement
	for _, def := range domain.PendingAwards(agg, domain.StatusIndex(statuses)) {
		if err := s.statuses.SaveAchievementStatus(ctx, userID, def.Name, now); err != nil {
			return earned, fail(domain.Persistence("save achievement status", err))
		}
		metrics.RecordAchievementAwarded(def.Name)
		s.opts.logger.Info("achievement earned",
			zap.String("user_id", userID),
			zap.String("achievement", def.Name),
			zap.String("trigger", trigger))
		s.opts.presenter.OnAchievementEarned(userID, def.Name, def.Description, now)
		earned = append(earned, EarnedAchievement{Name: def.Name, Description: def.Description, EarnedAt: now})
	}
	return earned, nil
}

// Board returns every achievement in table order with the user's status.
func (s *AchievementService) Board(ctx context.Context, userID string) ([]AchievementView, error) {
	statuses, err := s.statuses.LoadAchievementStatuses(ctx, userID)
	if err != nil {
		return nil, domain.Persistence("load achievement statuses", err)
	}
	idx := domain.StatusIndex(statuses)
	defs := domain.Achievements()
	out := make([]AchievementView, 0, len(defs))
	for _, d := range defs {
		st := idx[d.Name]
		out = append(out, AchievementView{
			Name:        d.Name,
			Description: d.Description,
			Earned:      st.Earned,
			EarnedAt:    st.EarnedAt,
		})
	}
	return out, nil
}
