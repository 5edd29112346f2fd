package snapshot

import "sync"

// Store holds the latest snapshot and broadcasts updates. Publish rejects
// out-of-order sequence numbers so a stale cycle finishing late can never
// roll the overlay backwards.
type Store struct {
	mu       sync.RWMutex
	current  Snapshot
	eventsCh chan Snapshot
}

// NewStore creates a store with the given event buffer size.
func NewStore(eventBuffer int) *Store {
	return &Store{eventsCh: make(chan Snapshot, eventBuffer)}
}

// Publish installs snap as current if its sequence number advances past
// the stored one. Returns false when snap is stale and was dropped.
func (s *Store) Publish(snap Snapshot) bool {
	s.mu.Lock()
	if s.current.Seq != 0 && snap.Seq <= s.current.Seq {
		s.mu.Unlock()
		return false
	}
	s.current = snap
	s.mu.Unlock()

	// Non-blocking: a slow subscriber loses intermediate snapshots, never
	// stalls the pipeline.
	select {
	case s.eventsCh <- snap:
	default:
	}
	return true
}

// Current returns the latest published snapshot.
func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Events returns the channel carrying published snapshots.
func (s *Store) Events() <-chan Snapshot {
	return s.eventsCh
}
