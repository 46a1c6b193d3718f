package relay

import "sync"

// CancelResult describes what /cancel found for a user.
type CancelResult int

const (
	// CancelRequested means a running batch was flagged to stop.
	CancelRequested CancelResult = iota
	// CancelAlreadyPending means the flag was already set.
	CancelAlreadyPending
	// CancelNoBatch means the user has no batch running.
	CancelNoBatch
)

// StateStore tracks the one in-flight batch per user. It exists so a
// /cancel arriving on the dispatcher goroutine can reach a batch running
// on another.
type StateStore struct {
	mu      sync.Mutex
	pending map[int64]bool
}

func NewStateStore() *StateStore {
	return &StateStore{pending: make(map[int64]bool)}
}

// TryRegister claims the user's single batch slot with a fresh cancel
// flag. Check and insert happen under one lock: two concurrent requests
// from the same user must never both claim the slot, or the loser's
// /cancel would address a batch that no longer owns it. Returns false
// when a batch is already registered.
func (s *StateStore) TryRegister(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[userID]; ok {
		return false
	}
	s.pending[userID] = false
	return true
}

// Cancelled reports whether the user's running batch was asked to stop.
func (s *StateStore) Cancelled(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[userID]
}

// Active reports whether the user has a batch registered.
func (s *StateStore) Active(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[userID]
	return ok
}

// RequestCancel flags the user's batch for cancellation.
func (s *StateStore) RequestCancel(userID int64) CancelResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	flagged, ok := s.pending[userID]
	if !ok {
		return CancelNoBatch
	}
	if flagged {
		return CancelAlreadyPending
	}
	s.pending[userID] = true
	return CancelRequested
}

// Count returns how many batches are currently registered.
func (s *StateStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Remove clears the user's slot once the batch finishes.
func (s *StateStore) Remove(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, userID)
}
