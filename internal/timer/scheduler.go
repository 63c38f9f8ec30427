// Package timer drives the one-second countdown of a practice attempt.
package timer

import (
	"sync"
	"time"
)

// Handle cancels a scheduled task. Cancel is idempotent.
type Handle interface {
	Cancel()
}

// Scheduler fires onTick every interval until the returned handle is cancelled.
type Scheduler interface {
	Schedule(interval time.Duration, onTick func()) Handle
}

// TickerScheduler runs each task on its own goroutine backed by a time.Ticker.
type TickerScheduler struct{}

func (TickerScheduler) Schedule(interval time.Duration, onTick func()) Handle {
	h := &tickerHandle{done: make(chan struct{})}
	t := time.NewTicker(interval)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-h.done:
				return
			case <-t.C:
				select {
				case <-h.done:
					return
				default:
				}
				onTick()
			}
		}
	}()
	return h
}

type tickerHandle struct {
	once sync.Once
	done chan struct{}
}

func (h *tickerHandle) Cancel() {
	h.once.Do(func() { close(h.done) })
}

// ManualScheduler fires tasks only when Advance is called. It is meant for
// tests and for callers that drive ticks from an external clock.
type ManualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	onTick    func()
	cancelled bool
	owner     *ManualScheduler
}

func (t *manualTask) Cancel() {
	t.owner.mu.Lock()
	t.cancelled = true
	t.owner.mu.Unlock()
}

func (s *ManualScheduler) Schedule(_ time.Duration, onTick func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	task := &manualTask{onTick: onTick, owner: s}
	s.tasks = append(s.tasks, task)
	return task
}

// Advance fires every live task n times.
func (s *ManualScheduler) Advance(n int) {
	for i := 0; i < n; i++ {
		for _, task := range s.live() {
			s.mu.Lock()
			cancelled := task.cancelled
			s.mu.Unlock()
			if !cancelled {
				task.onTick()
			}
		}
	}
}

// Active returns the number of tasks that have not been cancelled.
func (s *ManualScheduler) Active() int {
	return len(s.live())
}

func (s *ManualScheduler) live() []*manualTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.tasks[:0:0]
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.cancelled {
			out = append(out, t)
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	return out
}
