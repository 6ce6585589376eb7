/*
	state package defines the persisted link-health check state for a
	document together with the behavior expected of check-state data
	stores.
*/

package state

import (
	"time"

	"github.com/google/uuid"
)

// Store should be implemented by check-state data stores / types.
type Store interface {
	// Upsert creates or fully replaces the check state for the document
	// identified by state.DocumentID. The write covers the entire state
	// record; stores are expected to apply it atomically with
	// last-writer-wins semantics.
	Upsert(state *DocumentState) error

	// Find performs a check-state lookup by document id. A document
	// that has never been checked yields ErrNotFound.
	Find(documentID uuid.UUID) (*DocumentState, error)
}

// BrokenLink describes a single link currently believed unreachable.
// it serves as a model / schema object.
type BrokenLink struct {
	URL    string `json:"url"`     // Link target.
	RawTag string `json:"raw_tag"` // Text label of the originating anchor tag.
}

// DocumentState captures the outcome of the most recent link-health
// check for a single document. it serves as a model / schema object.
type DocumentState struct {
	DocumentID  uuid.UUID    // Owning document unique identifier.
	BrokenLinks []BrokenLink // Links believed unreachable, in document order, unique by URL.
	Fingerprint string       // Digest of the link set the state was computed from.
	CheckedAt   time.Time    // Last successful check timestamp.
}

// Clone returns a deep copy of the document state.
func (s *DocumentState) Clone() *DocumentState {
	sCopy := new(DocumentState)
	*sCopy = *s
	sCopy.BrokenLinks = append([]BrokenLink(nil), s.BrokenLinks...)

	return sCopy
}
