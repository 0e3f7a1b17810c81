package quicksearch

import "sync"

// Session tracks the quick searches started by one client. Only the result of
// the most recently started search may be applied; earlier ones finishing
// late are discarded.
type Session struct {
	ID string

	mu      sync.Mutex
	current uint64
	latest  *Outcome

	// Delivery state. At most one goroutine delivers at a time; outcomes
	// applied meanwhile are handed to it through pending.
	delivering bool
	pending    *Outcome
	delivered  uint64
}

func NewSession(id string) *Session {
	return &Session{ID: id}
}

// Begin starts a new search and returns its generation token.
func (s *Session) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current++
	return s.current
}

// Current returns the generation of the most recently started search.
func (s *Session) Current() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Apply stores o as the session's displayed result if its generation is still
// current. It reports whether the outcome was applied.
func (s *Session) Apply(o Outcome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.Generation != s.current {
		return false
	}
	o.Applied = true
	s.latest = &o
	return true
}

// Latest returns the last applied outcome.
func (s *Session) Latest() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return Outcome{}, false
	}
	return *s.latest, true
}

// Deliver hands an applied outcome to fn. Calls to fn for one session never
// overlap and never go back in generation. If another goroutine is already
// delivering, o is left to it and Deliver returns at once. An outcome whose
// generation is no longer current when its turn comes is dropped, since the
// newer search will deliver its own.
func (s *Session) Deliver(o Outcome, fn func(Outcome)) {
	s.mu.Lock()
	if s.pending == nil || o.Generation > s.pending.Generation {
		s.pending = &o
	}
	if s.delivering {
		s.mu.Unlock()
		return
	}
	s.delivering = true
	for s.pending != nil {
		next := *s.pending
		s.pending = nil
		if next.Generation != s.current || next.Generation <= s.delivered {
			continue
		}
		s.delivered = next.Generation
		s.mu.Unlock()
		fn(next)
		s.mu.Lock()
	}
	s.delivering = false
	s.mu.Unlock()
}
