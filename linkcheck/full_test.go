package linkcheck

import (
	"context"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/juju/clock/testclock"
	"golang.org/x/time/rate"
	check "gopkg.in/check.v1"

	"github.com/mycok/uCheck/checkstate/state"
	memstate "github.com/mycok/uCheck/checkstate/store/memory"
	"github.com/mycok/uCheck/linkcheck/mocks"
)

// Initialize and register an instance of the fullCheckerTestSuite to be
// executed by check testing package.
var _ = check.Suite(new(fullCheckerTestSuite))

type fullCheckerTestSuite struct {
	states *memstate.InMemoryStore
}

func (s *fullCheckerTestSuite) SetUpTest(c *check.C) {
	s.states = memstate.NewInMemoryStore()
}

func (s *fullCheckerTestSuite) newChecker(
	c *check.C, config FullCheckerConfig,
) *FullChecker {

	if config.States == nil {
		config.States = s.states
	}

	if config.Limiter == nil {
		config.Limiter = rate.NewLimiter(rate.Inf, 0)
	}

	checker, err := NewFullChecker(config)
	c.Assert(err, check.IsNil)

	return checker
}

func (s *fullCheckerTestSuite) TestCheckReportsOnlyUnreachableLinks(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	// The anchor link never reaches the prober.
	content := `<a href="#top">Top</a><a href="http://dead.example/x">X</a>`
	links := ExtractLinks(content)

	prober := mocks.NewMockReachabilityProber(ctrl)
	prober.EXPECT().IsReachable(gomock.Any(), "http://dead.example/x").Return(false)

	res, err := s.newChecker(c, FullCheckerConfig{Prober: prober}).Check(
		context.TODO(), links,
	)
	c.Assert(err, check.IsNil)
	c.Assert(res.CheckedCount, check.Equals, 1)
	c.Assert(res.BrokenLinks, check.DeepEquals, []state.BrokenLink{
		{URL: "http://dead.example/x", RawTag: "X"},
	})
}

func (s *fullCheckerTestSuite) TestCheckIsIdempotent(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	links := []LinkRecord{
		{URL: "http://alive.example/", RawTag: "alive"},
		{URL: "http://dead.example/x", RawTag: "dead"},
	}

	// With an unchanged set of remote endpoints, consecutive runs
	// yield the same broken-link set.
	prober := mocks.NewMockReachabilityProber(ctrl)
	prober.EXPECT().IsReachable(gomock.Any(), "http://alive.example/").Return(true).Times(2)
	prober.EXPECT().IsReachable(gomock.Any(), "http://dead.example/x").Return(false).Times(2)

	checker := s.newChecker(c, FullCheckerConfig{Prober: prober})

	first, err := checker.Check(context.TODO(), links)
	c.Assert(err, check.IsNil)

	second, err := checker.Check(context.TODO(), links)
	c.Assert(err, check.IsNil)
	c.Assert(second.BrokenLinks, check.DeepEquals, first.BrokenLinks)
	c.Assert(second.CheckedCount, check.Equals, first.CheckedCount)
}

func (s *fullCheckerTestSuite) TestCheckAndStoreMirrorsDifferentialState(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	docID := uuid.New()
	links := []LinkRecord{{URL: "http://dead.example/x", RawTag: "dead"}}

	prober := mocks.NewMockReachabilityProber(ctrl)
	prober.EXPECT().IsReachable(gomock.Any(), "http://dead.example/x").Return(false)

	_, err := s.newChecker(c, FullCheckerConfig{Prober: prober}).CheckAndStore(
		context.TODO(), docID, links,
	)
	c.Assert(err, check.IsNil)

	// A follow-up differential check over the same content must
	// short-circuit on the state the full checker persisted.
	diffChecker, err := NewDifferentialChecker(DifferentialCheckerConfig{
		Prober:  prober,
		States:  s.states,
		Limiter: rate.NewLimiter(rate.Inf, 0),
	})
	c.Assert(err, check.IsNil)

	res, err := diffChecker.Check(context.TODO(), docID, links)
	c.Assert(err, check.IsNil)
	c.Assert(res.LinksUnchanged, check.Equals, true)
	c.Assert(res.BrokenLinks, check.DeepEquals, []state.BrokenLink{
		{URL: "http://dead.example/x", RawTag: "dead"},
	})
}

func (s *fullCheckerTestSuite) TestCheckWithBudgetPersistsPartialResults(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	docID := uuid.New()
	links := []LinkRecord{
		{URL: "http://one.example/", RawTag: "one"},
		{URL: "http://two.example/", RawTag: "two"},
		{URL: "http://three.example/", RawTag: "three"},
	}

	clk := testclock.NewClock(time.Now())

	// Each probe consumes 30s of wall-clock time; with a 55s budget
	// only the first two links get probed.
	prober := mocks.NewMockReachabilityProber(ctrl)
	prober.EXPECT().IsReachable(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, string) bool {
			clk.Advance(30 * time.Second)

			return false
		},
	).Times(2)

	checker := s.newChecker(c, FullCheckerConfig{Prober: prober, Clock: clk})

	res, err := checker.CheckWithBudget(context.TODO(), docID, links, 55*time.Second)
	c.Assert(err, check.IsNil)
	c.Assert(res.Partial, check.Equals, true)
	c.Assert(res.CheckedCount, check.Equals, 2)
	c.Assert(res.BrokenLinks, check.DeepEquals, []state.BrokenLink{
		{URL: "http://one.example/", RawTag: "one"},
		{URL: "http://two.example/", RawTag: "two"},
	})

	// The partial subset is persisted rather than discarded.
	stored, err := s.states.Find(docID)
	c.Assert(err, check.IsNil)
	c.Assert(stored.BrokenLinks, check.DeepEquals, res.BrokenLinks)
}

func (s *fullCheckerTestSuite) TestCheckWithBudgetCompletesWithinBudget(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	docID := uuid.New()
	links := []LinkRecord{{URL: "http://alive.example/", RawTag: "alive"}}

	prober := mocks.NewMockReachabilityProber(ctrl)
	prober.EXPECT().IsReachable(gomock.Any(), "http://alive.example/").Return(true)

	res, err := s.newChecker(c, FullCheckerConfig{Prober: prober}).CheckWithBudget(
		context.TODO(), docID, links, 55*time.Second,
	)
	c.Assert(err, check.IsNil)
	c.Assert(res.Partial, check.Equals, false)
	c.Assert(res.CheckedCount, check.Equals, 1)
	c.Assert(res.BrokenLinks, check.HasLen, 0)
}
