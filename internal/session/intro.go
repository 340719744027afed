package session

import "time"

// Phase names one state of the introduction sequence. The sequence is
// linear with no back-transitions and every phase is entered at most once
// per session lifetime.
type Phase string

const (
	PhasePending    Phase = "pending"
	PhaseSlidingIn  Phase = "sliding-in"
	PhaseShown      Phase = "shown"
	PhaseSlidingOut Phase = "sliding-out"
	PhaseDone       Phase = "done"
)

// Dwell time spent in each phase before the next transition fires.
const (
	dwellPending    = 150 * time.Millisecond
	dwellSlidingIn  = 250 * time.Millisecond
	dwellShown      = 1200 * time.Millisecond
	dwellSlidingOut = 250 * time.Millisecond
)

func nextPhase(p Phase) (Phase, time.Duration, bool) {
	switch p {
	case PhasePending:
		return PhaseSlidingIn, dwellPending, true
	case PhaseSlidingIn:
		return PhaseShown, dwellSlidingIn, true
	case PhaseShown:
		return PhaseSlidingOut, dwellShown, true
	case PhaseSlidingOut:
		return PhaseDone, dwellSlidingOut, true
	default:
		return PhaseDone, 0, false
	}
}

// Open marks the drawer visible and, unless the introduction already
// completed, schedules the next transition. Reopening resumes from the
// phase already reached; a session at PhaseDone reopens directly in
// PhaseDone with no timer scheduled.
func (s *Session) Open() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	s.scheduleLocked()
}

// Close hides the drawer and tears down any pending transition timer.
// Teardown is unconditional: no transition fires after Close returns,
// and closing has no other side effects — an in-flight query still
// completes into the log. Stop's return value does not matter here: a
// callback that already fired carries a stale generation and advance
// discards it.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// OnPhaseChange registers fn to run after every introduction transition.
// fn is invoked outside the session lock. Register before the drawer
// first opens; transitions that happened earlier are not replayed.
func (s *Session) OnPhaseChange(fn func(Phase)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPhase = fn
}

// IntroPhase returns the current introduction phase.
func (s *Session) IntroPhase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// scheduleLocked arms the timer for the next transition. Callers hold mu.
func (s *Session) scheduleLocked() {
	if !s.open || s.timer != nil {
		return
	}
	_, dwell, ok := nextPhase(s.phase)
	if !ok {
		return
	}
	s.timerGen++
	gen := s.timerGen
	s.timer = s.after(dwell, func() { s.advance(gen) })
}

// advance fires one transition. A callback that raced with Close — the
// timer fired before Stop reached it — carries a stale generation and is
// discarded, even when the drawer has reopened with a fresh timer armed.
func (s *Session) advance(gen uint64) {
	s.mu.Lock()
	if !s.open || s.timer == nil || gen != s.timerGen {
		s.mu.Unlock()
		return
	}
	s.timer.Stop()
	s.timer = nil
	next, _, ok := nextPhase(s.phase)
	if !ok {
		s.mu.Unlock()
		return
	}
	s.phase = next
	s.scheduleLocked()
	fn, reached := s.onPhase, s.phase
	s.mu.Unlock()
	if fn != nil {
		fn(reached)
	}
}
