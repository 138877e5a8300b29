package presign

import (
	"sync"

	"github.com/tolelom/ecdsapresign/types"
)

// Phase is one of the engine's per-tick protocol phases. It returns the
// change actions it produced, or an empty set if it had nothing to do.
type Phase func() types.ChangeSet

// Scheduler gives each registered phase a fair turn at being the first
// one tried, round-robin, across ticks — so a phase that always has
// work doesn't starve the others from ever producing output first.
//
// Resolves the open question of when the cursor should advance: only a
// call's own non-empty result advances it past that call. A tick where
// every phase is empty leaves the cursor exactly where it was, so the
// same phase gets first try again next tick rather than cycling through
// phases that are known to have nothing to do.
type Scheduler struct {
	mu     sync.Mutex
	cursor int
}

// NewScheduler creates a scheduler starting at phase 0.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// CallNext tries each phase in calls, starting from the current cursor
// and wrapping around, until one returns a non-empty change set. Every
// phase visited before the first non-empty one (or all of them, if none
// produce anything) is called exactly once this tick.
func (s *Scheduler) CallNext(calls []Phase) types.ChangeSet {
	if len(calls) == 0 {
		return nil
	}
	s.mu.Lock()
	start := s.cursor % len(calls)
	s.mu.Unlock()

	for i := 0; i < len(calls); i++ {
		idx := (start + i) % len(calls)
		changes := calls[idx]()
		if len(changes) > 0 {
			s.mu.Lock()
			s.cursor = (idx + 1) % len(calls)
			s.mu.Unlock()
			return changes
		}
	}
	return types.ChangeSet{}
}
