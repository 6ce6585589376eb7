package linkcheck

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/mycok/uCheck/checkstate/state"
)

// URLDoer should be implemented by objects that perform HTTP requests
// to probe link targets.
type URLDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ReachabilityProber should be implemented by objects that can decide
// whether a single link target is currently reachable. Implementations
// must fold every transport failure into an unreachable verdict
// instead of surfacing it as an error.
type ReachabilityProber interface {
	IsReachable(ctx context.Context, url string) bool
}

// StateStore defines a minimum set of API methods the checkers require
// for reading and writing persisted document check states.
type StateStore interface {
	// Upsert creates or fully replaces the check state for a document.
	Upsert(docState *state.DocumentState) error

	// Find performs a check-state lookup by document id.
	Find(documentID uuid.UUID) (*state.DocumentState, error)
}
