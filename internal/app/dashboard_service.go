package app

import (
	"context"
	"errors"
	"time"

	"stressless/internal/domain"
)

// MaxTrendDays bounds the window returned by DashboardService.Trend.
const MaxTrendDays = 366

// DashboardService encapsulates the progress views shown on the dashboard.
type DashboardService struct {
	history domain.HistoryRepository
	opts    options
}

// NewDashboardService creates a DashboardService backed by the given repository.
func NewDashboardService(history domain.HistoryRepository, opts ...Option) *DashboardService {
	return &DashboardService{history: history, opts: newOptions(opts)}
}

// DayPoint is a single data point returned by Trend.
type DayPoint struct {
	Day       string   `json:"day"`
	Sessions  int      `json:"sessions"`
	AvgBefore *float64 `json:"avgBefore"`
	AvgAfter  *float64 `json:"avgAfter"`
}

// Summary is the header of the dashboard.
type Summary struct {
	TotalSessions  int     `json:"totalSessions"`
	ExerciseStreak int     `json:"exerciseStreak"`
	LoginStreak    int     `json:"loginStreak"`
	AvgCompletion  float64 `json:"avgCompletion"`
}

// ErrInvalidDay is returned for a day not in YYYY-MM-DD form.
var ErrInvalidDay = errors.New("date must be YYYY-MM-DD")

// SessionsForDay returns the user's sessions on day ("2006-01-02"), oldest
// first. An empty day means today.
func (s *DashboardService) SessionsForDay(ctx context.Context, userID, day string) ([]domain.SessionRecord, error) {
	if day == "" {
		day = domain.DayKey(s.opts.now())
	} else if _, err := time.Parse("2006-01-02", day); err != nil {
		return nil, ErrInvalidDay
	}
	recs, err := s.history.ListSessions(ctx, userID, day)
	if err != nil {
		return nil, domain.Persistence("list sessions", err)
	}
	return recs, nil
}

// Trend returns per-day averages of stress before and after for the last
// days days, oldest first. Days without sessions carry nil averages.
func (s *DashboardService) Trend(ctx context.Context, userID string, days int) ([]DayPoint, error) {
	if days <= 0 {
		days = 7
	}
	if days > MaxTrendDays {
		days = MaxTrendDays
	}

	recs, err := s.history.ListSessions(ctx, userID, "")
	if err != nil {
		return nil, domain.Persistence("list sessions", err)
	}

	today := s.opts.now()
	type acc struct{ n, before, after int }
	byDay := make(map[string]*acc)
	for _, r := range recs {
		key := domain.DayKey(r.CreatedAt.In(today.Location()))
		a := byDay[key]
		if a == nil {
			a = &acc{}
			byDay[key] = a
		}
		a.n++
		a.before += r.StressBefore
		a.after += r.StressAfter
	}

	points := make([]DayPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		dayStr := domain.DayKey(today.AddDate(0, 0, -i))
		p := DayPoint{Day: dayStr}
		if a := byDay[dayStr]; a != nil {
			before := float64(a.before) / float64(a.n)
			after := float64(a.after) / float64(a.n)
			p.Sessions = a.n
			p.AvgBefore = &before
			p.AvgAfter = &after
		}
		points = append(points, p)
	}
	return points, nil
}

// Summary returns lifetime totals and the current open-ended streaks.
func (s *DashboardService) Summary(ctx context.Context, userID string) (Summary, error) {
	h, err := s.history.LoadHistory(ctx, userID)
	if err != nil {
		return Summary{}, domain.Persistence("load history", err)
	}
	now := s.opts.now()

	sessionTimes := make([]time.Time, len(h.Sessions))
	total := 0.0
	for i, r := range h.Sessions {
		sessionTimes[i] = r.CreatedAt
		total += r.CompletionPercentage
	}
	loginTimes := make([]time.Time, len(h.Logins))
	for i, l := range h.Logins {
		loginTimes[i] = l.CreatedAt
	}

	sum := Summary{
		TotalSessions:  len(h.Sessions),
		ExerciseStreak: domain.ConsecutiveDays(sessionTimes, now, MaxTrendDays),
		LoginStreak:    domain.ConsecutiveDays(loginTimes, now, MaxTrendDays),
	}
	if len(h.Sessions) > 0 {
		sum.AvgCompletion = domain.RoundTenth(total / float64(len(h.Sessions)))
	}
	return sum, nil
}
