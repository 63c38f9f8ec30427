package app

import (
	"time"

	"stressless/internal/domain"
)

// Presenter receives the state changes a user should see. Calls are made
// synchronously and must not block.
type Presenter interface {
	OnRecommendationReady(userID string, ex domain.ExerciseDefinition)
	OnNoExerciseAvailable(userID string)
	OnTimerTick(userID string, remainingSeconds int, percentElapsed float64)
	OnTimerExpired(userID string)
	OnSessionFinalized(userID string, completion float64)
	OnAchievementEarned(userID, name, description string, at time.Time)
}

// NopPresenter discards every event.
type NopPresenter struct{}

func (NopPresenter) OnRecommendationReady(string, domain.ExerciseDefinition) {}
func (NopPresenter) OnNoExerciseAvailable(string) {}
func (NopPresenter) OnTimerTick(string, int, float64) {}
func (NopPresenter) OnTimerExpired(string) {}
func (NopPresenter) OnSessionFinalized(string, float64) {}
func (NopPresenter) OnAchievementEarned(string, string, string, time.Time) {}
