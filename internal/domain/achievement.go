package domain

import (
	"context"
	"time"
)

// Achievement names. They key statuses in storage and in the presentation layer.
const (
	AchievementThreeDayLogin         = "Three Day Login"
	AchievementThreeDayExercise      = "Three Day Exercise"
	AchievementTenExercises          = "Ten Exercises Completed"
	AchievementFirstPost             = "First Community Post"
	AchievementStressReductionMaster = "Stress Reduction Master"
	AchievementPerfectWeek           = "Perfect Week"
	AchievementMindfulMaster         = "Mindful Master"
)

// AchievementDefinition pairs a badge with the rule that awards it.
type AchievementDefinition struct {
	Name        string
	Description string
	Earned      func(Aggregates) bool
}

var achievementTable = []AchievementDefinition{
	{
		Name:        AchievementThreeDayLogin,
		Description: "Log in three days in a row.",
		Earned:      func(a Aggregates) bool { return a.LoginStreak3 == ShortStreakWindow },
	},
	{
		Name:        AchievementThreeDayExercise,
		Description: "Complete an exercise three days in a row.",
		Earned:      func(a Aggregates) bool { return a.ExerciseStreak3 == ShortStreakWindow },
	},
	{
		Name:        AchievementTenExercises,
		Description: "Complete ten exercises.",
		Earned:      func(a Aggregates) bool { return a.TotalExercises >= 10 },
	},
	{
		Name:        AchievementFirstPost,
		Description: "Share your first post with the community.",
		Earned:      func(a Aggregates) bool { return a.TotalPosts >= 1 },
	},
	{
		Name:        AchievementStressReductionMaster,
		Description: "Lower your stress in each of your last three sessions.",
		Earned:      func(a Aggregates) bool { return a.LastThreeDecreasing },
	},
	{
		Name:        AchievementPerfectWeek,
		Description: "Exercise every day for a week.",
		Earned:      func(a Aggregates) bool { return a.ExerciseStreak7 == WeekStreakWindow },
	},
	{
		Name:        AchievementMindfulMaster,
		Description: "Complete fifty Mindful Breathing sessions.",
		Earned:      func(a Aggregates) bool { return a.MindfulBreathingCount >= 50 },
	},
}

// Achievements returns the fixed rule table in evaluation order.
func Achievements() []AchievementDefinition {
	out := make([]AchievementDefinition, len(achievementTable))
	copy(out, achievementTable)
	return out
}

// AchievementNames returns the names of every defined achievement in table order.
func AchievementNames() []string {
	names := make([]string, len(achievementTable))
	for i, d := range achievementTable {
		names[i] = d.Name
	}
	return names
}

// LookupAchievement returns the definition for name.
func LookupAchievement(name string) (AchievementDefinition, bool) {
	for _, d := range achievementTable {
		if d.Name == name {
			return d, true
		}
	}
	return AchievementDefinition{}, false
}

// AchievementStatus is a user's state for one achievement. Once Earned is
// true it never reverts and EarnedAt is never rewritten.
type AchievementStatus struct {
	UserID   string     `json:"-"`
	Name     string     `json:"name"`
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earnedAt,omitempty"`
}

// Earn returns the status transitioned to Earned at t. An already earned
// status is returned unchanged with changed=false.
func (s AchievementStatus) Earn(t time.Time) (next AchievementStatus, changed bool) {
	if s.Earned {
		return s, false
	}
	at := t
	s.Earned = true
	s.EarnedAt = &at
	return s, true
}

// StatusIndex keys statuses by achievement name.
func StatusIndex(statuses []AchievementStatus) map[string]AchievementStatus {
	idx := make(map[string]AchievementStatus, len(statuses))
	for _, s := range statuses {
		idx[s.Name] = s
	}
	return idx
}

// PendingAwards returns, in table order, the definitions whose rule holds for
// a and whose status in idx is not yet earned. Missing statuses count as unearned.
func PendingAwards(a Aggregates, idx map[string]AchievementStatus) []AchievementDefinition {
	var out []AchievementDefinition
	for _, d := range achievementTable {
		if idx[d.Name].Earned {
			continue
		}
		if d.Earned(a) {
			out = append(out, d)
		}
	}
	return out
}

// AchievementRepository is the port for per-user achievement statuses.
type AchievementRepository interface {
	// LoadAchievementStatuses returns one status per seeded achievement.
	LoadAchievementStatuses(ctx context.Context, userID string) ([]AchievementStatus, error)
	// SaveAchievementStatus marks name as earned at earnedAt. Implementations
	// must not overwrite an existing earn timestamp.
	SaveAchievementStatus(ctx context.Context, userID, name string, earnedAt time.Time) error
	// SeedAchievementStatuses creates unearned rows for names that have none.
	SeedAchievementStatuses(ctx context.Context, userID string, names []string) error
}
