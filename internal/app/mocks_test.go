package app_test

import (
	"context"
	"sync"
	"time"

	"stressless/internal/domain"
)

type mockCatalogRepo struct {
	loadFn   func(ctx context.Context) ([]domain.ExerciseDefinition, error)
	addFn    func(ctx context.Context, def domain.ExerciseDefinition) error
	updateFn func(ctx context.Context, name string, def domain.ExerciseDefinition) error
	deleteFn func(ctx context.Context, name string) error
}

func (m *mockCatalogRepo) LoadCatalog(ctx context.Context) ([]domain.ExerciseDefinition, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx)
	}
	return nil, nil
}

func (m *mockCatalogRepo) AddExercise(ctx context.Context, def domain.ExerciseDefinition) error {
	if m.addFn != nil {
		return m.addFn(ctx, def)
	}
	return nil
}

func (m *mockCatalogRepo) UpdateExercise(ctx context.Context, name string, def domain.ExerciseDefinition) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, name, def)
	}
	return nil
}

func (m *mockCatalogRepo) DeleteExercise(ctx context.Context, name string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, name)
	}
	return nil
}

func catalogOf(defs ...domain.ExerciseDefinition) *mockCatalogRepo {
	return &mockCatalogRepo{loadFn: func(context.Context) ([]domain.ExerciseDefinition, error) { return defs, nil }}
}

type mockHistoryRepo struct {
	loadFn  func(ctx context.Context, userID string) (domain.History, error)
	saveFn  func(ctx context.Context, rec domain.SessionRecord) error
	loginFn func(ctx context.Context, userID string, at time.Time) error
	listFn  func(ctx context.Context, userID, day string) ([]domain.SessionRecord, error)
}

func (m *mockHistoryRepo) LoadHistory(ctx context.Context, userID string) (domain.History, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx, userID)
	}
	return domain.History{}, nil
}

func (m *mockHistoryRepo) SaveSessionRecord(ctx context.Context, rec domain.SessionRecord) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, rec)
	}
	return nil
}

func (m *mockHistoryRepo) SaveLoginEvent(ctx context.Context, userID string, at time.Time) error {
	if m.loginFn != nil {
		return m.loginFn(ctx, userID, at)
	}
	return nil
}

func (m *mockHistoryRepo) ListSessions(ctx context.Context, userID, day string) ([]domain.SessionRecord, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, day)
	}
	return nil, nil
}

type mockAchievementRepo struct {
	loadFn func(ctx context.Context, userID string) ([]domain.AchievementStatus, error)
	saveFn func(ctx context.Context, userID, name string, at time.Time) error
	seedFn func(ctx context.Context, userID string, names []string) error
}

func (m *mockAchievementRepo) LoadAchievementStatuses(ctx context.Context, userID string) ([]domain.AchievementStatus, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockAchievementRepo) SaveAchievementStatus(ctx context.Context, userID, name string, at time.Time) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, userID, name, at)
	}
	return nil
}

func (m *mockAchievementRepo) SeedAchievementStatuses(ctx context.Context, userID string, names []string) error {
	if m.seedFn != nil {
		return m.seedFn(ctx, userID, names)
	}
	return nil
}

type presenterEvent struct {
	kind      string
	userID    string
	name      string
	remaining int
	value     float64
}

// recordingPresenter captures every event in order.
type recordingPresenter struct {
	mu     sync.Mutex
	events []presenterEvent
}

func (p *recordingPresenter) add(e presenterEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPresenter) OnRecommendationReady(userID string, ex domain.ExerciseDefinition) {
	p.add(presenterEvent{kind: "recommendation", userID: userID, name: ex.Name})
}

func (p *recordingPresenter) OnNoExerciseAvailable(userID string) {
	p.add(presenterEvent{kind: "none", userID: userID})
}

func (p *recordingPresenter) OnTimerTick(userID string, remaining int, percent float64) {
	p.add(presenterEvent{kind: "tick", userID: userID, remaining: remaining, value: percent})
}

func (p *recordingPresenter) OnTimerExpired(userID string) {
	p.add(presenterEvent{kind: "expired", userID: userID})
}

func (p *recordingPresenter) OnSessionFinalized(userID string, completion float64) {
	p.add(presenterEvent{kind: "finalized", userID: userID, value: completion})
}

func (p *recordingPresenter) OnAchievementEarned(userID, name, _ string, _ time.Time) {
	p.add(presenterEvent{kind: "achievement", userID: userID, name: name})
}

func (p *recordingPresenter) ofKind(kind string) []presenterEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []presenterEvent
	for _, e := range p.events {
		if e.kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// fixedClock returns a clock that reports t until advanced.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}
