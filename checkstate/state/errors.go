package state

import "errors"

var (
	// ErrNotFound is returned when no check state exists for the
	// queried document id.
	ErrNotFound = errors.New("check state not found")

	// ErrMissingDocumentID is returned when an upsert is attempted for
	// a state record without a document id.
	ErrMissingDocumentID = errors.New("document ID is missing")
)
