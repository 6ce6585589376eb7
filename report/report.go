/*
	report package maintains a searchable catalogue of every link
	currently believed broken across all checked documents. It backs
	the broken-link search endpoint that UI panels use to answer
	questions like "which documents still point at this dead host".
*/

package report

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve"
	"github.com/google/uuid"

	"github.com/mycok/uCheck/checkstate/state"
)

// Size of each page of results returned by a search.
const batchSize = 10

// Entry describes a single broken link reported for a document.
type Entry struct {
	DocumentID string `json:"document_id"`
	URL        string `json:"url"`
	RawTag     string `json:"raw_tag"`
}

type bleveEntry struct {
	DocumentID string
	URL        string
	RawTag     string
}

// Index is an in-memory, full-text searchable catalogue of broken-link
// entries backed by a bleve instance. It can be concurrently accessed
// by multiple clients.
type Index struct {
	mu  sync.Mutex
	idx bleve.Index
	// Maps a document id to the bleve entry ids currently indexed for
	// it, so that a re-check can replace the document's entries
	// wholesale.
	entryIDs map[string][]string
}

// NewInMemoryIndex instantiates and returns a broken-link report index
// that keeps its catalogue in memory.
func NewInMemoryIndex() (*Index, error) {
	mapping := bleve.NewIndexMapping()
	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, err
	}

	return &Index{
		idx:      idx,
		entryIDs: make(map[string][]string),
	}, nil
}

// Close releases / frees any previously allocated resources.
func (r *Index) Close() error {
	return r.idx.Close()
}

// Put replaces the catalogued broken-link entries for a document with
// the provided set. An empty set clears the document from the
// catalogue. The replacement is applied as a single batch so that
// searches never observe a half-updated document.
func (r *Index) Put(documentID uuid.UUID, broken []state.BrokenLink) error {
	if documentID == uuid.Nil {
		return fmt.Errorf("report put: missing document ID")
	}

	docKey := documentID.String()

	r.mu.Lock()
	defer r.mu.Unlock()

	batch := r.idx.NewBatch()
	for _, entryID := range r.entryIDs[docKey] {
		batch.Delete(entryID)
	}

	newIDs := make([]string, 0, len(broken))
	for _, l := range broken {
		entryID := docKey + "|" + l.URL

		if err := batch.Index(entryID, bleveEntry{
			DocumentID: docKey,
			URL:        l.URL,
			RawTag:     l.RawTag,
		}); err != nil {
			return fmt.Errorf("report put: %w", err)
		}

		newIDs = append(newIDs, entryID)
	}

	if err := r.idx.Batch(batch); err != nil {
		return fmt.Errorf("report put: %w", err)
	}

	r.entryIDs[docKey] = newIDs

	return nil
}

// Search performs a full-text lookup over the catalogued entries and
// returns the first page of matches.
func (r *Index) Search(expression string) ([]Entry, error) {
	query := bleve.NewQueryStringQuery(expression)

	req := bleve.NewSearchRequestOptions(query, batchSize, 0, false)
	req.Fields = []string{"DocumentID", "URL", "RawTag"}

	res, err := r.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("report search: %w", err)
	}

	entries := make([]Entry, 0, len(res.Hits))
	for _, hit := range res.Hits {
		entries = append(entries, Entry{
			DocumentID: fieldString(hit.Fields, "DocumentID"),
			URL:        fieldString(hit.Fields, "URL"),
			RawTag:     fieldString(hit.Fields, "RawTag"),
		})
	}

	return entries, nil
}

func fieldString(fields map[string]interface{}, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}

	return ""
}
