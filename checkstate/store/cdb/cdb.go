package cdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // Registers the postgres sql driver.

	"github.com/mycok/uCheck/checkstate/state"
)

var (
	upsertStateQuery = `
					INSERT INTO document_check_states (document_id, broken_links, fingerprint, checked_at)
					VALUES ($1, $2, $3, $4)
					ON CONFLICT (document_id)
					DO UPDATE SET broken_links=$2, fingerprint=$3, checked_at=$4
					`
	findStateQuery = `
					SELECT broken_links, fingerprint, checked_at
					FROM document_check_states WHERE document_id=$1
					`
)

// Static and compile-time check to ensure CockroachDBStore implements
// state.Store interface.
var _ state.Store = (*CockroachDBStore)(nil)

// CockroachDBStore implements a persistent check-state store backed by
// a cockroachDB instance. The broken-link set is stored as a single
// JSONB column so that every upsert replaces the whole record in one
// statement.
type CockroachDBStore struct {
	db *sql.DB
}

// NewCockroachDBStore returns a CockroachDBStore instance.
func NewCockroachDBStore(dsn string) (*CockroachDBStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	return &CockroachDBStore{db}, nil
}

// Close terminates the connection to the cockroachDB instance.
func (s *CockroachDBStore) Close() error {
	return s.db.Close()
}

// Upsert creates or fully replaces the check state for a document.
func (s *CockroachDBStore) Upsert(docState *state.DocumentState) error {
	if docState.DocumentID == uuid.Nil {
		return fmt.Errorf("upsert state: %w", state.ErrMissingDocumentID)
	}

	brokenLinks, err := json.Marshal(docState.BrokenLinks)
	if err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = s.db.ExecContext(
		ctx, upsertStateQuery,
		docState.DocumentID, brokenLinks, docState.Fingerprint,
		docState.CheckedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}

	return nil
}

// Find performs a check-state lookup by document id.
func (s *CockroachDBStore) Find(documentID uuid.UUID) (*state.DocumentState, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var brokenLinks []byte
	docState := &state.DocumentState{DocumentID: documentID}

	err := s.db.QueryRowContext(ctx, findStateQuery, documentID).Scan(
		&brokenLinks, &docState.Fingerprint, &docState.CheckedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("find state: %w", state.ErrNotFound)
		}

		return nil, fmt.Errorf("find state: %w", err)
	}

	if err := json.Unmarshal(brokenLinks, &docState.BrokenLinks); err != nil {
		return nil, fmt.Errorf("find state: %w", err)
	}

	return docState, nil
}
