package statetest

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/mycok/uCheck/checkstate/state"
)

// BaseSuite defines a set of re-usable check-state tests that can be
// executed against any concrete type that implements the state.Store
// interface.
type BaseSuite struct {
	s state.Store
}

// SetStore configures the test-suite to run all tests against an
// instance of state.Store.
func (s *BaseSuite) SetStore(store state.Store) {
	s.s = store
}

// TestUpsertAndFind verifies the create-then-lookup round trip.
func (s *BaseSuite) TestUpsertAndFind(c *check.C) {
	docID := uuid.New()
	initial := &state.DocumentState{
		DocumentID: docID,
		BrokenLinks: []state.BrokenLink{
			{URL: "http://dead.example/x", RawTag: "X"},
			{URL: "http://gone.example/y", RawTag: "Y"},
		},
		Fingerprint: "fp-1",
		CheckedAt:   time.Now().Truncate(time.Second).UTC(),
	}

	err := s.s.Upsert(initial)
	c.Assert(err, check.IsNil)

	got, err := s.s.Find(docID)
	c.Assert(err, check.IsNil)
	c.Assert(got.DocumentID, check.Equals, docID)
	c.Assert(got.Fingerprint, check.Equals, "fp-1")
	c.Assert(got.BrokenLinks, check.DeepEquals, initial.BrokenLinks,
		check.Commentf("Stored broken links do not match the upserted set"),
	)
}

// TestUpsertReplacesWholeState verifies that an upsert is a whole-record
// write rather than a per-entry merge.
func (s *BaseSuite) TestUpsertReplacesWholeState(c *check.C) {
	docID := uuid.New()

	err := s.s.Upsert(&state.DocumentState{
		DocumentID: docID,
		BrokenLinks: []state.BrokenLink{
			{URL: "http://dead.example/x", RawTag: "X"},
		},
		Fingerprint: "fp-1",
		CheckedAt:   time.Now().UTC(),
	})
	c.Assert(err, check.IsNil)

	replacement := &state.DocumentState{
		DocumentID: docID,
		BrokenLinks: []state.BrokenLink{
			{URL: "http://gone.example/y", RawTag: "Y"},
		},
		Fingerprint: "fp-2",
		CheckedAt:   time.Now().Truncate(time.Second).UTC(),
	}

	err = s.s.Upsert(replacement)
	c.Assert(err, check.IsNil)

	got, err := s.s.Find(docID)
	c.Assert(err, check.IsNil)
	c.Assert(got.Fingerprint, check.Equals, "fp-2")
	c.Assert(got.BrokenLinks, check.DeepEquals, replacement.BrokenLinks,
		check.Commentf("Old broken links leaked into the replaced state"),
	)
}

// TestUpsertEmptyBrokenSet verifies that a state with no broken links
// is still persisted together with its fingerprint.
func (s *BaseSuite) TestUpsertEmptyBrokenSet(c *check.C) {
	docID := uuid.New()

	err := s.s.Upsert(&state.DocumentState{
		DocumentID:  docID,
		Fingerprint: "fp-empty",
		CheckedAt:   time.Now().UTC(),
	})
	c.Assert(err, check.IsNil)

	got, err := s.s.Find(docID)
	c.Assert(err, check.IsNil)
	c.Assert(got.Fingerprint, check.Equals, "fp-empty")
	c.Assert(len(got.BrokenLinks), check.Equals, 0)
}

// TestUpsertWithoutDocumentID verifies input validation for upserts.
func (s *BaseSuite) TestUpsertWithoutDocumentID(c *check.C) {
	err := s.s.Upsert(&state.DocumentState{Fingerprint: "fp"})
	c.Assert(errors.Is(err, state.ErrMissingDocumentID), check.Equals, true)
}

// TestFindUnknownDocument verifies the not-found behavior.
func (s *BaseSuite) TestFindUnknownDocument(c *check.C) {
	_, err := s.s.Find(uuid.New())
	c.Assert(errors.Is(err, state.ErrNotFound), check.Equals, true)
}

// TestConcurrentAccess ensures that multiple clients can concurrently
// read and write states for distinct documents without data races.
func (s *BaseSuite) TestConcurrentAccess(c *check.C) {
	var (
		wg           sync.WaitGroup
		numOfClients = 10
		numOfWrites  = 20
	)

	wg.Add(numOfClients)

	for i := 0; i < numOfClients; i++ {
		go func(id int) {
			defer wg.Done()

			docID := uuid.New()
			errComment := check.Commentf("Client %d", id)

			for j := 0; j < numOfWrites; j++ {
				err := s.s.Upsert(&state.DocumentState{
					DocumentID:  docID,
					Fingerprint: fmt.Sprint(j),
					CheckedAt:   time.Now().UTC(),
				})
				c.Assert(err, check.IsNil, errComment)

				got, err := s.s.Find(docID)
				c.Assert(err, check.IsNil, errComment)
				c.Assert(got.Fingerprint, check.Equals, fmt.Sprint(j), errComment)
			}
		}(i)
	}

	wg.Wait()
}
