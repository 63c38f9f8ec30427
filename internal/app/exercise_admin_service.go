package app

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"stressless/internal/domain"
)

// ExerciseAdminService lets administrators maintain the exercise catalog.
// Recommendations read the catalog on every request, so edits take effect
// immediately.
type ExerciseAdminService struct {
	repo domain.CatalogRepository
	opts options
}

// NewExerciseAdminService creates an ExerciseAdminService.
func NewExerciseAdminService(repo domain.CatalogRepository, opts ...Option) *ExerciseAdminService {
	return &ExerciseAdminService{repo: repo, opts: newOptions(opts)}
}

// List returns the catalog in storage order.
func (s *ExerciseAdminService) List(ctx context.Context) ([]domain.ExerciseDefinition, error) {
	defs, err := s.repo.LoadCatalog(ctx)
	if err != nil {
		return nil, domain.Persistence("load catalog", err)
	}
	return defs, nil
}

// Add validates def and inserts it.
func (s *ExerciseAdminService) Add(ctx context.Context, actor *domain.User, def domain.ExerciseDefinition) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	def = normalize(def)
	if err := def.Validate(); err != nil {
		return err
	}
	if err := s.repo.AddExercise(ctx, def); err != nil {
		if errors.Is(err, domain.ErrExerciseExists) {
			return err
		}
		return domain.Persistence("add exercise", err)
	}
	s.opts.logger.Info("exercise added", zap.String("exercise", def.Name), zap.String("by", actor.ID))
	return nil
}

// Update replaces the definition stored under name.
func (s *ExerciseAdminService) Update(ctx context.Context, actor *domain.User, name string, def domain.ExerciseDefinition) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	def = normalize(def)
	if err := def.Validate(); err != nil {
		return err
	}
	if err := s.repo.UpdateExercise(ctx, name, def); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrExerciseExists) {
			return err
		}
		return domain.Persistence("update exercise", err)
	}
	s.opts.logger.Info("exercise updated", zap.String("exercise", name), zap.String("by", actor.ID))
	return nil
}

// Delete removes name from the catalog. Past session records keep the name.
func (s *ExerciseAdminService) Delete(ctx context.Context, actor *domain.User, name string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if err := s.repo.DeleteExercise(ctx, name); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return domain.Persistence("delete exercise", err)
	}
	s.opts.logger.Info("exercise deleted", zap.String("exercise", name), zap.String("by", actor.ID))
	return nil
}

func normalize(def domain.ExerciseDefinition) domain.ExerciseDefinition {
	def.Name = strings.TrimSpace(def.Name)
	def.Description = strings.TrimSpace(def.Description)
	if def.DurationSeconds == 0 {
		def.DurationSeconds = domain.DefaultDurationSeconds
	}
	return def
}
