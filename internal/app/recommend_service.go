package app

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"stressless/internal/domain"
	"stressless/internal/metrics"
)

// RecommendService picks an exercise for a reported stress level.
type RecommendService struct {
	catalog  domain.CatalogRepository
	fallback atomic.Int64
	opts     options
}

// NewRecommendService creates a RecommendService. fallbackLevel is the level
// whose exercises are offered when none covers the reported one.
func NewRecommendService(catalog domain.CatalogRepository, fallbackLevel int, opts ...Option) *RecommendService {
	s := &RecommendService{catalog: catalog, opts: newOptions(opts)}
	s.SetFallbackLevel(fallbackLevel)
	return s
}

// SetFallbackLevel replaces the fallback level. Out of range values select
// domain.DefaultFallbackLevel. Safe for concurrent use.
func (s *RecommendService) SetFallbackLevel(level int) {
	if domain.ValidateStressLevel(level) != nil {
		level = domain.DefaultFallbackLevel
	}
	s.fallback.Store(int64(level))
}

// FallbackLevel returns the level currently used for fallback.
func (s *RecommendService) FallbackLevel() int {
	return int(s.fallback.Load())
}

// Catalog reads the current exercise definitions from storage.
func (s *RecommendService) Catalog(ctx context.Context) (domain.Catalog, error) {
	defs, err := s.catalog.LoadCatalog(ctx)
	if err != nil {
		return domain.Catalog{}, domain.Persistence("load catalog", err)
	}
	return domain.NewCatalog(defs, s.FallbackLevel()), nil
}

// Recommend returns one exercise chosen uniformly among those eligible for
// level. Two calls with the same level may return different exercises.
func (s *RecommendService) Recommend(ctx context.Context, userID string, level int) (domain.ExerciseDefinition, error) {
	if err := domain.ValidateStressLevel(level); err != nil {
		return domain.ExerciseDefinition{}, err
	}
	cat, err := s.Catalog(ctx)
	if err != nil {
		return domain.ExerciseDefinition{}, err
	}

	eligible := cat.Eligible(level)
	if len(eligible) == 0 {
		metrics.RecordRecommendation(metrics.OutcomeNone)
		s.opts.logger.Warn("no exercise available",
			zap.String("user_id", userID),
			zap.Int("stress_level", level),
			zap.Int("catalog_size", cat.Len()))
		s.opts.presenter.OnNoExerciseAvailable(userID)
		return domain.ExerciseDefinition{}, domain.ErrNoExercisesAvailable
	}

	outcome := metrics.OutcomeMatched
	if !eligible[0].Covers(level) {
		outcome = metrics.OutcomeFallback
	}
	metrics.RecordRecommendation(outcome)

	pick := eligible[s.opts.intn(len(eligible))]
	s.opts.logger.Debug("exercise recommended",
		zap.String("user_id", userID),
		zap.Int("stress_level", level),
		zap.String("exercise", pick.Name),
		zap.String("outcome", outcome))
	s.opts.presenter.OnRecommendationReady(userID, pick)
	return pick, nil
}
