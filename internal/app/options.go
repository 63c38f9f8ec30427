package app

import (
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"stressless/internal/timer"
)

// Option configures optional collaborators shared by the services.
type Option func(*options)

type options struct {
	logger    *zap.Logger
	now       func() time.Time
	presenter Presenter
	locker    UserLocker
	intn      func(n int) int
	scheduler timer.Scheduler
}

func newOptions(opts []Option) options {
	o := options{
		logger:    zap.NewNop(),
		now:       time.Now,
		presenter: NopPresenter{},
		locker:    NewLocalLocker(),
		intn:      rand.IntN,
		scheduler: timer.TickerScheduler{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger overrides the logger used to report failures.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithPresenter sets the receiver of user-visible events.
func WithPresenter(p Presenter) Option {
	return func(o *options) {
		if p != nil {
			o.presenter = p
		}
	}
}

// WithLocker sets the per-user lock used around finalize and evaluate.
func WithLocker(l UserLocker) Option {
	return func(o *options) {
		if l != nil {
			o.locker = l
		}
	}
}

// WithRandom overrides the source used to pick among eligible exercises.
// intn must return a value in [0, n).
func WithRandom(intn func(n int) int) Option {
	return func(o *options) {
		if intn != nil {
			o.intn = intn
		}
	}
}

// WithScheduler overrides how countdown ticks are scheduled.
func WithScheduler(s timer.Scheduler) Option {
	return func(o *options) {
		if s != nil {
			o.scheduler = s
		}
	}
}
