package domain

import (
	"context"
	"fmt"
	"strings"
)

const (
	// MinStressLevel and MaxStressLevel bound every reported stress level.
	MinStressLevel = 1
	MaxStressLevel = 10

	// DefaultDurationSeconds is the nominal length of an exercise whose
	// definition carries no duration or whose name is no longer catalogued.
	DefaultDurationSeconds = 300
)

// ExerciseDefinition describes one guided exercise in the catalog.
type ExerciseDefinition struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	MinLevel        int    `json:"minLevel"`
	MaxLevel        int    `json:"maxLevel"`
	DurationSeconds int    `json:"durationSeconds"`
}

// Covers reports whether level falls within the exercise's stress range.
func (e ExerciseDefinition) Covers(level int) bool {
	return e.MinLevel <= level && level <= e.MaxLevel
}

// NominalDuration returns the configured duration or the default.
func (e ExerciseDefinition) NominalDuration() int {
	if e.DurationSeconds <= 0 {
		return DefaultDurationSeconds
	}
	return e.DurationSeconds
}

// Validate checks the name and the stress range.
func (e ExerciseDefinition) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidExercise)
	}
	if e.MinLevel < MinStressLevel || e.MaxLevel > MaxStressLevel || e.MinLevel > e.MaxLevel {
		return fmt.Errorf("%w: range [%d, %d] must satisfy 1 <= min <= max <= 10", ErrInvalidExercise, e.MinLevel, e.MaxLevel)
	}
	if e.DurationSeconds < 0 {
		return fmt.Errorf("%w: duration cannot be negative", ErrInvalidExercise)
	}
	return nil
}

// ValidateStressLevel returns ErrInvalidStressLevel when level is out of range.
func ValidateStressLevel(level int) error {
	if level < MinStressLevel || level > MaxStressLevel {
		return fmt.Errorf("%w: got %d", ErrInvalidStressLevel, level)
	}
	return nil
}

// DefaultExercises returns the catalog seeded into an empty store.
func DefaultExercises() []ExerciseDefinition {
	return []ExerciseDefinition{
		{Name: "Mindful Breathing 1", Description: "Focus on slow inhales and exhales for 5 minutes to promote relaxation.", MinLevel: 1, MaxLevel: 3, DurationSeconds: DefaultDurationSeconds},
		{Name: "Mindful Breathing 2", Description: "Count breaths from 1 to 10, then repeat, enhancing focus and calm.", MinLevel: 4, MaxLevel: 6, DurationSeconds: DefaultDurationSeconds},
		{Name: "Body Scan", Description: "A guided practice to progressively relax each part of the body from head to toe.", MinLevel: 7, MaxLevel: 10, DurationSeconds: DefaultDurationSeconds},
		{Name: "Walking Meditation", Description: "Mindful walking for 10 minutes to improve awareness and reduce stress.", MinLevel: 3, MaxLevel: 5, DurationSeconds: DefaultDurationSeconds},
		{Name: "Loving-Kindness Meditation", Description: "Cultivate compassion by sending positive thoughts to yourself and others.", MinLevel: 2, MaxLevel: 4, DurationSeconds: DefaultDurationSeconds},
		{Name: "Gentle Stretching", Description: "Simple stretching to release physical tension and calm the mind.", MinLevel: 1, MaxLevel: 10, DurationSeconds: DefaultDurationSeconds},
	}
}

// CatalogRepository is the port for exercise definitions.
type CatalogRepository interface {
	LoadCatalog(ctx context.Context) ([]ExerciseDefinition, error)
	AddExercise(ctx context.Context, def ExerciseDefinition) error
	// UpdateExercise replaces the definition stored under name; def.Name may differ to rename it.
	UpdateExercise(ctx context.Context, name string, def ExerciseDefinition) error
	DeleteExercise(ctx context.Context, name string) error
}
