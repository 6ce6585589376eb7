package memory

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mycok/uCheck/document"
)

// Static and compile-time check to ensure InMemoryStore implements
// document.Store interface.
var _ document.Store = (*InMemoryStore)(nil)

// InMemoryStore implements an in-memory document content store that
// can be concurrently accessed by multiple clients.
type InMemoryStore struct {
	mu       sync.RWMutex
	contents map[uuid.UUID]string
}

// NewInMemoryStore creates a new in-memory document store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{contents: make(map[uuid.UUID]string)}
}

// Upsert creates or replaces the raw markup for a document.
func (s *InMemoryStore) Upsert(documentID uuid.UUID, content string) error {
	if documentID == uuid.Nil {
		return fmt.Errorf("upsert document: missing document ID")
	}

	s.mu.Lock()
	s.contents[documentID] = content
	s.mu.Unlock()

	return nil
}

// Content returns the current raw markup for a document.
func (s *InMemoryStore) Content(documentID uuid.UUID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, exists := s.contents[documentID]
	if !exists {
		return "", fmt.Errorf("document content: %w", document.ErrNotFound)
	}

	return content, nil
}
