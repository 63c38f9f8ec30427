package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"stressless/internal/domain"
	"stressless/internal/timer"
)

// PracticeService runs the per-user exercise flow: recommend, count down,
// then finalize. Each user has at most one attempt and one live countdown.
type PracticeService struct {
	selector *RecommendService
	recorder *Recorder
	opts     options

	mu       sync.Mutex
	attempts map[string]*attempt
}

type attempt struct {
	state     domain.SessionContext
	countdown *timer.Countdown
}

// NewPracticeService creates a PracticeService.
func NewPracticeService(selector *RecommendService, recorder *Recorder, opts ...Option) *PracticeService {
	return &PracticeService{
		selector: selector,
		recorder: recorder,
		opts:     newOptions(opts),
		attempts: make(map[string]*attempt),
	}
}

// Begin recommends an exercise for stressBefore and starts its countdown,
// replacing any attempt the user already had.
func (s *PracticeService) Begin(ctx context.Context, userID string, stressBefore int) (domain.SessionContext, error) {
	ex, err := s.selector.Recommend(ctx, userID, stressBefore)
	if err != nil {
		return domain.SessionContext{}, err
	}

	sc := domain.NewSessionContext(userID, stressBefore, ex).Started()
	a := &attempt{state: sc}
	a.countdown = timer.NewCountdown(s.opts.scheduler, func(t timer.Tick) {
		s.onTick(userID, a, t)
	})

	a.countdown.Start(sc.NominalSeconds)

	// Published only once its countdown runs, so EndEarly and Submit always
	// cancel the generation that ticks.
	s.mu.Lock()
	if prev := s.attempts[userID]; prev != nil {
		prev.countdown.Cancel()
	}
	s.attempts[userID] = a
	s.mu.Unlock()
	s.opts.logger.Debug("countdown started",
		zap.String("user_id", userID),
		zap.String("exercise", ex.Name),
		zap.Int("seconds", sc.NominalSeconds))
	return sc, nil
}

func (s *PracticeService) onTick(userID string, a *attempt, t timer.Tick) {
	s.mu.Lock()
	if s.attempts[userID] != a || !a.countdown.IsCurrent(t.Gen) {
		s.mu.Unlock()
		return
	}
	if !a.state.Running {
		a.countdown.Cancel()
		s.mu.Unlock()
		return
	}
	a.state = a.state.Tick(t.Remaining)
	percent := a.state.PercentElapsed()
	s.mu.Unlock()

	s.opts.presenter.OnTimerTick(userID, t.Remaining, percent)
	if t.Expired {
		s.opts.presenter.OnTimerExpired(userID)
	}
}

// State returns the user's current attempt.
func (s *PracticeService) State(userID string) (domain.SessionContext, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[userID]
	if !ok {
		return domain.SessionContext{}, false
	}
	return a.state, true
}

// EndEarly stops the countdown where it is. The attempt stays open for Submit.
func (s *PracticeService) EndEarly(userID string) (domain.SessionContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[userID]
	if !ok {
		return domain.SessionContext{}, domain.ErrNoActiveExercise
	}
	a.countdown.Cancel()
	a.state = a.state.Stopped()
	return a.state, nil
}

// Submit finalizes the user's attempt with the feedback answers. The attempt
// leaves the map before the record is written, so a concurrent Submit gets
// domain.ErrNoActiveExercise. It is put back when nothing was written so the
// user can retry.
func (s *PracticeService) Submit(ctx context.Context, userID string, stressAfter int, notes string) (*FinalizeResult, error) {
	s.mu.Lock()
	a, ok := s.attempts[userID]
	if !ok {
		s.mu.Unlock()
		return nil, domain.ErrNoActiveExercise
	}
	delete(s.attempts, userID)
	a.countdown.Cancel()
	a.state = a.state.Stopped()
	sc := a.state
	s.mu.Unlock()

	res, err := s.recorder.Finalize(ctx, Submission{Context: sc, StressAfter: stressAfter, Notes: notes})
	if res == nil {
		s.mu.Lock()
		if _, taken := s.attempts[userID]; !taken {
			s.attempts[userID] = a
		}
		s.mu.Unlock()
		return nil, err
	}
	return res, err
}

// Abandon drops the user's attempt without recording it.
func (s *PracticeService) Abandon(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.attempts[userID]; ok {
		a.countdown.Cancel()
		delete(s.attempts, userID)
	}
}
