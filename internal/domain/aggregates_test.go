package domain_test

import (
	"testing"
	"time"

	"stressless/internal/domain"
)

var now = time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)

func daysAgo(n int, hour int) time.Time {
	d := now.AddDate(0, 0, -n)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.UTC)
}

func sessionsOn(days ...int) []domain.SessionRecord {
	out := make([]domain.SessionRecord, 0, len(days))
	for _, d := range days {
		out = append(out, domain.SessionRecord{
			UserID:       "u1",
			CreatedAt:    daysAgo(d, 9),
			StressBefore: 5,
			StressAfter:  5,
			ExerciseName: "Body Scan",
		})
	}
	return out
}

func TestExerciseStreak(t *testing.T) {
	tests := []struct {
		name  string
		days  []int
		want3 int
		want7 int
	}{
		{"today yesterday and day before", []int{0, 1, 2}, 3, 3},
		{"gap of one day", []int{0, 2}, 1, 1},
		{"two days ago only", []int{2}, 0, 0},
		{"nothing today", []int{1, 2, 3}, 0, 0},
		{"full week", []int{0, 1, 2, 3, 4, 5, 6}, 3, 7},
		{"ten days caps at window", []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, 3, 7},
		{"several on same day", []int{0, 0, 0}, 1, 1},
		{"empty", nil, 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			agg := domain.ComputeAggregates(domain.History{Sessions: sessionsOn(tc.days...)}, now)
			if agg.ExerciseStreak3 != tc.want3 {
				t.Errorf("ExerciseStreak3 = %d, want %d", agg.ExerciseStreak3, tc.want3)
			}
			if agg.ExerciseStreak7 != tc.want7 {
				t.Errorf("ExerciseStreak7 = %d, want %d", agg.ExerciseStreak7, tc.want7)
			}
		})
	}
}

func TestLoginStreakIgnoresTimeOfDay(t *testing.T) {
	logins := []domain.LoginEvent{
		{UserID: "u1", CreatedAt: daysAgo(0, 0)},
		{UserID: "u1", CreatedAt: daysAgo(1, 23)},
		{UserID: "u1", CreatedAt: daysAgo(2, 12)},
	}
	agg := domain.ComputeAggregates(domain.History{Logins: logins}, now)
	if agg.LoginStreak3 != 3 {
		t.Fatalf("LoginStreak3 = %d, want 3", agg.LoginStreak3)
	}
}

func TestStreakUsesLocationOfNow(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	localNow := time.Date(2024, 3, 15, 10, 0, 0, 0, loc)
	// 02:00 UTC on the 15th is still the 14th in UTC-5.
	times := []time.Time{
		time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 15, 2, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 13, 20, 0, 0, 0, time.UTC),
	}
	if got := domain.ConsecutiveDays(times, localNow, 3); got != 3 {
		t.Fatalf("ConsecutiveDays = %d, want 3", got)
	}
	if got := domain.ConsecutiveDays(times, localNow.In(time.UTC), 3); got != 1 {
		t.Fatalf("ConsecutiveDays in UTC = %d, want 1", got)
	}
}

func TestCounts(t *testing.T) {
	h := domain.History{
		Sessions: []domain.SessionRecord{
			{ExerciseName: "Mindful Breathing 1", CreatedAt: daysAgo(3, 9)},
			{ExerciseName: "Mindful Breathing 2", CreatedAt: daysAgo(2, 9)},
			{ExerciseName: "Mindful Breathing 3", CreatedAt: daysAgo(1, 9)},
			{ExerciseName: "Body Scan", CreatedAt: daysAgo(0, 9)},
		},
		Posts: []domain.CommunityPost{{ID: "p1"}, {ID: "p2"}},
	}
	agg := domain.ComputeAggregates(h, now)
	if agg.TotalExercises != 4 {
		t.Errorf("TotalExercises = %d, want 4", agg.TotalExercises)
	}
	if agg.TotalPosts != 2 {
		t.Errorf("TotalPosts = %d, want 2", agg.TotalPosts)
	}
	if agg.MindfulBreathingCount != 2 {
		t.Errorf("MindfulBreathingCount = %d, want 2", agg.MindfulBreathingCount)
	}
}

func TestLastThreeDecreasing(t *testing.T) {
	rec := func(hoursAgo, before, after int) domain.SessionRecord {
		return domain.SessionRecord{
			CreatedAt:    now.Add(-time.Duration(hoursAgo) * time.Hour),
			StressBefore: before,
			StressAfter:  after,
		}
	}
	tests := []struct {
		name     string
		sessions []domain.SessionRecord
		want     bool
	}{
		{"three decreasing", []domain.SessionRecord{rec(3, 8, 6), rec(2, 7, 4), rec(1, 6, 3)}, true},
		{"middle unchanged", []domain.SessionRecord{rec(3, 8, 6), rec(2, 7, 7), rec(1, 6, 3)}, false},
		{"only two records", []domain.SessionRecord{rec(2, 7, 4), rec(1, 6, 3)}, false},
		{"older increase ignored", []domain.SessionRecord{rec(10, 2, 9), rec(3, 8, 6), rec(2, 7, 4), rec(1, 6, 3)}, true},
		{"unordered input", []domain.SessionRecord{rec(1, 6, 3), rec(10, 2, 9), rec(3, 8, 6), rec(2, 7, 4)}, true},
		{"newest increase", []domain.SessionRecord{rec(3, 8, 6), rec(2, 7, 4), rec(1, 3, 6)}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			agg := domain.ComputeAggregates(domain.History{Sessions: tc.sessions}, now)
			if agg.LastThreeDecreasing != tc.want {
				t.Fatalf("LastThreeDecreasing = %v, want %v", agg.LastThreeDecreasing, tc.want)
			}
		})
	}
}

func TestStartOfDay(t *testing.T) {
	got := domain.StartOfDay(now)
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("StartOfDay = %v, want %v", got, want)
	}
	if domain.DayKey(now) != "2024-03-15" {
		t.Fatalf("DayKey = %q", domain.DayKey(now))
	}
}
