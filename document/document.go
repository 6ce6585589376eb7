/*
	document package defines the behavior of document content
	collaborators. The checking engine never owns document storage; it
	only needs to read the latest raw markup for a document when a
	background check runs.
*/

package document

import (
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no document exists for the queried id.
var ErrNotFound = errors.New("document not found")

// Source should be implemented by collaborators that can supply the
// latest raw markup for a document.
type Source interface {
	// Content returns the current raw markup for a document.
	Content(documentID uuid.UUID) (string, error)
}

// Store should be implemented by collaborators that additionally
// accept document content writes.
type Store interface {
	Source

	// Upsert creates or replaces the raw markup for a document.
	Upsert(documentID uuid.UUID, content string) error
}
