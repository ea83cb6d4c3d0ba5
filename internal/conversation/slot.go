// ABOUTME: Single-slot request lock guarding the one outstanding question
// ABOUTME: Tickets make release idempotent and ignore stale holders

package conversation

import "sync"

// ticket identifies one acquisition of the slot.
type ticket uint64

// slot admits at most one holder at a time. It is advisory: it orders
// submissions in the view, it does not protect the transport.
type slot struct {
	mu   sync.Mutex
	held bool
	seq  ticket
}

// tryAcquire takes the slot if it is free.
func (s *slot) tryAcquire() (ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.held {
		return 0, false
	}
	s.seq++
	s.held = true
	return s.seq, true
}

// release frees the slot if t is the current holder.
func (s *slot) release(t ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.held && s.seq == t {
		s.held = false
	}
}

func (s *slot) busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held
}
