package linkcheck

import (
	"context"
	"errors"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
	check "gopkg.in/check.v1"

	"github.com/mycok/uCheck/checkstate/state"
	memstate "github.com/mycok/uCheck/checkstate/store/memory"
	"github.com/mycok/uCheck/linkcheck/mocks"
)

// Initialize and register an instance of the differentialCheckerTestSuite
// to be executed by check testing package.
var _ = check.Suite(new(differentialCheckerTestSuite))

type differentialCheckerTestSuite struct {
	states *memstate.InMemoryStore
}

func (s *differentialCheckerTestSuite) SetUpTest(c *check.C) {
	s.states = memstate.NewInMemoryStore()
}

func (s *differentialCheckerTestSuite) newChecker(
	c *check.C, prober ReachabilityProber,
) *DifferentialChecker {

	checker, err := NewDifferentialChecker(DifferentialCheckerConfig{
		Prober:  prober,
		States:  s.states,
		Limiter: rate.NewLimiter(rate.Inf, 0),
	})
	c.Assert(err, check.IsNil)

	return checker
}

func (s *differentialCheckerTestSuite) TestFirstCheckProbesAndPersists(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	docID := uuid.New()
	links := []LinkRecord{
		{URL: "http://alive.example/", RawTag: "alive"},
		{URL: "http://dead.example/x", RawTag: "dead"},
	}

	prober := mocks.NewMockReachabilityProber(ctrl)
	prober.EXPECT().IsReachable(gomock.Any(), "http://alive.example/").Return(true)
	prober.EXPECT().IsReachable(gomock.Any(), "http://dead.example/x").Return(false)

	res, err := s.newChecker(c, prober).Check(context.TODO(), docID, links)
	c.Assert(err, check.IsNil)
	c.Assert(res.LinksUnchanged, check.Equals, false)
	c.Assert(res.CheckedCount, check.Equals, 2)
	c.Assert(res.BrokenLinks, check.DeepEquals, []state.BrokenLink{
		{URL: "http://dead.example/x", RawTag: "dead"},
	})

	stored, err := s.states.Find(docID)
	c.Assert(err, check.IsNil)
	c.Assert(stored.Fingerprint, check.Equals, Fingerprint(links))
	c.Assert(stored.BrokenLinks, check.DeepEquals, res.BrokenLinks)
}

func (s *differentialCheckerTestSuite) TestUnchangedLinkSetCostsZeroProbes(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	docID := uuid.New()
	links := []LinkRecord{{URL: "http://dead.example/x", RawTag: "dead"}}

	// A single probe for the first pass; the controller fails the test
	// if the second pass issues any.
	prober := mocks.NewMockReachabilityProber(ctrl)
	prober.EXPECT().IsReachable(gomock.Any(), "http://dead.example/x").Return(false)

	checker := s.newChecker(c, prober)

	first, err := checker.Check(context.TODO(), docID, links)
	c.Assert(err, check.IsNil)
	c.Assert(first.LinksUnchanged, check.Equals, false)

	second, err := checker.Check(context.TODO(), docID, links)
	c.Assert(err, check.IsNil)
	c.Assert(second.LinksUnchanged, check.Equals, true)
	c.Assert(second.CheckedCount, check.Equals, 0)
	c.Assert(second.BrokenLinks, check.DeepEquals, first.BrokenLinks)
}

func (s *differentialCheckerTestSuite) TestMergeTrustsKnownBrokenAndEvictsStale(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	docID := uuid.New()

	// Stored state: A and B broken. Current content: B removed, C added.
	err := s.states.Upsert(&state.DocumentState{
		DocumentID: docID,
		BrokenLinks: []state.BrokenLink{
			{URL: "http://a.example/", RawTag: "A"},
			{URL: "http://b.example/", RawTag: "B"},
		},
		Fingerprint: "stale-fingerprint",
	})
	c.Assert(err, check.IsNil)

	links := []LinkRecord{
		{URL: "http://a.example/", RawTag: "A"},
		{URL: "http://c.example/", RawTag: "C"},
	}

	// Only C is probed: A is trusted as broken, B is gone.
	prober := mocks.NewMockReachabilityProber(ctrl)
	prober.EXPECT().IsReachable(gomock.Any(), "http://c.example/").Return(false)

	res, err := s.newChecker(c, prober).Check(context.TODO(), docID, links)
	c.Assert(err, check.IsNil)
	c.Assert(res.CheckedCount, check.Equals, 1)
	c.Assert(res.BrokenLinks, check.DeepEquals, []state.BrokenLink{
		{URL: "http://a.example/", RawTag: "A"},
		{URL: "http://c.example/", RawTag: "C"},
	})

	stored, err := s.states.Find(docID)
	c.Assert(err, check.IsNil)
	c.Assert(stored.BrokenLinks, check.DeepEquals, res.BrokenLinks,
		check.Commentf("The stale entry for B must be evicted from the stored state"),
	)
}

func (s *differentialCheckerTestSuite) TestAnchorsAreNeverProbedOrReported(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	docID := uuid.New()
	links := []LinkRecord{
		{URL: "#top", RawTag: "Top", IsAnchor: true},
		{URL: "http://alive.example/", RawTag: "alive"},
	}

	prober := mocks.NewMockReachabilityProber(ctrl)
	prober.EXPECT().IsReachable(gomock.Any(), "http://alive.example/").Return(true)

	res, err := s.newChecker(c, prober).Check(context.TODO(), docID, links)
	c.Assert(err, check.IsNil)
	c.Assert(res.CheckedCount, check.Equals, 1)
	c.Assert(res.BrokenLinks, check.HasLen, 0)
}

func (s *differentialCheckerTestSuite) TestDuplicateURLsAreProbedOnce(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	docID := uuid.New()
	links := []LinkRecord{
		{URL: "http://dead.example/x", RawTag: "first"},
		{URL: "http://dead.example/x", RawTag: "second"},
	}

	prober := mocks.NewMockReachabilityProber(ctrl)
	prober.EXPECT().IsReachable(gomock.Any(), "http://dead.example/x").Return(false)

	res, err := s.newChecker(c, prober).Check(context.TODO(), docID, links)
	c.Assert(err, check.IsNil)
	c.Assert(res.CheckedCount, check.Equals, 1)
	c.Assert(res.BrokenLinks, check.DeepEquals, []state.BrokenLink{
		{URL: "http://dead.example/x", RawTag: "first"},
	})
}

func (s *differentialCheckerTestSuite) TestEmptyLinkSetStillPersistsState(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	docID := uuid.New()
	prober := mocks.NewMockReachabilityProber(ctrl)

	checker := s.newChecker(c, prober)

	res, err := checker.Check(context.TODO(), docID, nil)
	c.Assert(err, check.IsNil)
	c.Assert(res.BrokenLinks, check.HasLen, 0)

	// A second pass over the still-empty document short-circuits.
	res, err = checker.Check(context.TODO(), docID, nil)
	c.Assert(err, check.IsNil)
	c.Assert(res.LinksUnchanged, check.Equals, true)
}

func (s *differentialCheckerTestSuite) TestMissingDocumentID(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	prober := mocks.NewMockReachabilityProber(ctrl)

	_, err := s.newChecker(c, prober).Check(context.TODO(), uuid.Nil, nil)
	c.Assert(errors.Is(err, state.ErrMissingDocumentID), check.Equals, true)
}
