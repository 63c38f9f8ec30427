package domain

import (
	"slices"
	"time"
)

// Streak windows used by the achievement rules.
const (
	ShortStreakWindow = 3
	WeekStreakWindow  = 7
)

// mindfulBreathingExercises are the variants counted towards Mindful Master.
var mindfulBreathingExercises = map[string]bool{
	"Mindful Breathing 1": true,
	"Mindful Breathing 2": true,
}

// Aggregates are the derived statistics the achievement rules are tested against.
type Aggregates struct {
	LoginStreak3          int
	ExerciseStreak3       int
	ExerciseStreak7       int
	TotalExercises        int
	TotalPosts            int
	MindfulBreathingCount int
	LastThreeDecreasing   bool
}

// ComputeAggregates derives every aggregate from h as of now. Calendar days are
// taken in now's location.
func ComputeAggregates(h History, now time.Time) Aggregates {
	loginTimes := make([]time.Time, len(h.Logins))
	for i, l := range h.Logins {
		loginTimes[i] = l.CreatedAt
	}
	sessionTimes := make([]time.Time, len(h.Sessions))
	mindful := 0
	for i, s := range h.Sessions {
		sessionTimes[i] = s.CreatedAt
		if mindfulBreathingExercises[s.ExerciseName] {
			mindful++
		}
	}
	loginDays := daySet(loginTimes, now.Location())
	sessionDays := daySet(sessionTimes, now.Location())

	return Aggregates{
		LoginStreak3:          streak(loginDays, now, ShortStreakWindow),
		ExerciseStreak3:       streak(sessionDays, now, ShortStreakWindow),
		ExerciseStreak7:       streak(sessionDays, now, WeekStreakWindow),
		TotalExercises:        len(h.Sessions),
		TotalPosts:            len(h.Posts),
		MindfulBreathingCount: mindful,
		LastThreeDecreasing:   lastThreeDecreasing(h.Sessions),
	}
}

// ConsecutiveDays returns the length of the run of calendar days ending on
// now's day on which at least one of times falls, capped at window.
func ConsecutiveDays(times []time.Time, now time.Time, window int) int {
	return streak(daySet(times, now.Location()), now, window)
}

func streak(days map[string]bool, now time.Time, window int) int {
	today := StartOfDay(now)
	n := 0
	for i := 0; i < window; i++ {
		if !days[DayKey(today.AddDate(0, 0, -i))] {
			break
		}
		n++
	}
	return n
}

func daySet(times []time.Time, loc *time.Location) map[string]bool {
	days := make(map[string]bool, len(times))
	for _, t := range times {
		days[DayKey(t.In(loc))] = true
	}
	return days
}

func lastThreeDecreasing(sessions []SessionRecord) bool {
	if len(sessions) < 3 {
		return false
	}
	recent := make([]SessionRecord, len(sessions))
	copy(recent, sessions)
	slices.SortStableFunc(recent, func(a, b SessionRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	for _, s := range recent[:3] {
		if !s.Decreased() {
			return false
		}
	}
	return true
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayKey formats t as a "2006-01-02" calendar day in its own location.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
