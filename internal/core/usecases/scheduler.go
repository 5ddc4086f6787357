package usecases

import (
	"sync"
	"time"

	"github.com/facebookgo/clock"
)

// DefaultDebounceWindow is the quiet period a burst of view changes must end with
// before the visible set is recomputed.
const DefaultDebounceWindow = 100 * time.Millisecond

// RecomputeScheduler collapses bursts of Schedule calls into a single trailing
// run of action, window after the last call.
//
// Each Schedule bumps a generation number; a timer only runs the action if its
// generation is still current, so a timer that fires while being replaced, or
// after Stop, is a no-op.
type RecomputeScheduler struct {
	clock  clock.Clock
	window time.Duration
	action func()

	mu      sync.Mutex
	timer   *clock.Timer
	gen     uint64
	stopped bool
}

// NewRecomputeScheduler creates a scheduler. A nil clock means wall-clock time and
// a non-positive window means DefaultDebounceWindow.
func NewRecomputeScheduler(clk clock.Clock, window time.Duration, action func()) *RecomputeScheduler {
	if clk == nil {
		clk = clock.New()
	}
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &RecomputeScheduler{clock: clk, window: window, action: action}
}

// Schedule (re)arms the scheduler: any pending run is dropped and a new one is
// due window from now.
func (s *RecomputeScheduler) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.cancelLocked()
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.window, func() { s.fire(gen) })
}

// Cancel drops the pending run, if any.
func (s *RecomputeScheduler) Cancel() {
	s.mu.Lock()
	s.cancelLocked()
	s.mu.Unlock()
}

// Stop cancels the pending run and turns every later Schedule into a no-op.
func (s *RecomputeScheduler) Stop() {
	s.mu.Lock()
	s.cancelLocked()
	s.stopped = true
	s.mu.Unlock()
}

// Pending reports whether a run is armed.
func (s *RecomputeScheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Window is the debounce window.
func (s *RecomputeScheduler) Window() time.Duration { return s.window }

func (s *RecomputeScheduler) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

func (s *RecomputeScheduler) fire(gen uint64) {
	s.mu.Lock()
	if s.stopped || gen != s.gen || s.timer == nil {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	s.action()
}
