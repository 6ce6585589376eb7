package memory

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mycok/uCheck/checkstate/state"
)

// Static and compile-time check to ensure InMemoryStore implements
// state.Store interface.
var _ state.Store = (*InMemoryStore)(nil)

// InMemoryStore implements an in-memory check-state store that can be
// concurrently accessed by multiple clients.
type InMemoryStore struct {
	mu     sync.RWMutex
	states map[uuid.UUID]*state.DocumentState
}

// NewInMemoryStore creates a new in-memory check-state store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		states: make(map[uuid.UUID]*state.DocumentState),
	}
}

// Upsert creates or fully replaces the check state for a document.
// The entire record is swapped in a single critical section which
// gives callers the atomic, last-writer-wins write the checkers
// depend on.
func (s *InMemoryStore) Upsert(docState *state.DocumentState) error {
	if docState.DocumentID == uuid.Nil {
		return fmt.Errorf("upsert state: %w", state.ErrMissingDocumentID)
	}

	// Clone before storing to protect the stored record from
	// side-effects triggered outside this method.
	sCopy := docState.Clone()

	s.mu.Lock()
	s.states[sCopy.DocumentID] = sCopy
	s.mu.Unlock()

	return nil
}

// Find performs a check-state lookup by document id.
func (s *InMemoryStore) Find(documentID uuid.UUID) (*state.DocumentState, error) {
	// Read lock allows other processes or goroutines to perform reads
	// by concurrently acquiring other read locks.
	s.mu.RLock()
	defer s.mu.RUnlock()

	docState, exists := s.states[documentID]
	if !exists {
		return nil, fmt.Errorf("find state: %w", state.ErrNotFound)
	}

	// Clone so that mutations by the caller never reach the stored copy.
	return docState.Clone(), nil
}
