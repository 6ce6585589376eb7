package linkcheck

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mycok/uCheck/checkstate/state"
)

const defaultNumOfProbeWorkers = 4

// FullCheckerConfig defines configurations for the full checker.
type FullCheckerConfig struct {
	// An API for deciding the reachability of a single link target.
	Prober ReachabilityProber

	// An API for reading and writing persisted document check states.
	// Only required when using CheckAndStore or CheckWithBudget.
	States StateStore

	// The number of concurrent workers used for probing links during
	// interactive full checks. If not specified, 4 workers will be
	// used instead.
	NumOfProbeWorkers int

	// A rate limiter that paces outbound probes. If not specified, a
	// limiter allowing one probe every 50ms will be used instead.
	Limiter *rate.Limiter

	// A clock instance for generating time-related events. If not
	// specified, the default wall-clock will be used instead.
	Clock clock.Clock

	// The logger to use. If not defined an output-discarding logger
	// will be used instead.
	Logger *logrus.Entry
}

func (config *FullCheckerConfig) validate() error {
	var err error

	if config.Prober == nil {
		err = multierror.Append(err, fmt.Errorf("prober not provided"))
	}

	if config.NumOfProbeWorkers <= 0 {
		config.NumOfProbeWorkers = defaultNumOfProbeWorkers
	}

	if config.Limiter == nil {
		config.Limiter = rate.NewLimiter(rate.Every(defaultProbeInterval), 1)
	}

	if config.Clock == nil {
		config.Clock = clock.WallClock
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}

// FullChecker probes every link in a set unconditionally, ignoring any
// previously stored state. It backs explicit user-triggered scans and
// the scheduled background batch runs where exhaustiveness matters
// more than marginal cost. Running the checker twice over an unchanged
// document and an unchanged set of remote endpoints yields the same
// broken-link set.
type FullChecker struct {
	config FullCheckerConfig
}

// NewFullChecker creates and returns a fully configured full checker
// instance.
func NewFullChecker(config FullCheckerConfig) (*FullChecker, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("full checker: config validation failed: %w", err)
	}

	return &FullChecker{config: config}, nil
}

// Check probes every distinct non-anchor link concurrently using a
// bounded worker pool and returns the complete broken-link set in
// document order.
func (c *FullChecker) Check(
	ctx context.Context, links []LinkRecord,
) (*Result, error) {

	targets := uniqueProbeTargets(links)
	reachable := make([]bool, len(targets))

	g, probeCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.NumOfProbeWorkers)

	for i, target := range targets {
		i, target := i, target

		g.Go(func() error {
			if err := c.config.Limiter.Wait(probeCtx); err != nil {
				return err
			}

			// Each worker writes to its own slot, so no extra
			// synchronization is required beyond the group wait.
			reachable[i] = c.config.Prober.IsReachable(probeCtx, target.URL)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("full check: %w", err)
	}

	var broken []state.BrokenLink
	for i, target := range targets {
		if !reachable[i] {
			broken = append(
				broken, state.BrokenLink{URL: target.URL, RawTag: target.RawTag},
			)
		}
	}

	return &Result{
		BrokenLinks:  broken,
		CheckedCount: len(targets),
	}, nil
}

// CheckAndStore runs Check and persists the outcome for the document,
// mirroring the exact state shape the differential checker writes so
// that the two paths stay consistent for a subsequent differential
// call.
func (c *FullChecker) CheckAndStore(
	ctx context.Context, documentID uuid.UUID, links []LinkRecord,
) (*Result, error) {

	res, err := c.Check(ctx, links)
	if err != nil {
		return nil, err
	}

	if err := c.persist(documentID, links, res.BrokenLinks); err != nil {
		return nil, err
	}

	return res, nil
}

// CheckWithBudget probes links one at a time and aborts the loop once
// the elapsed wall-clock time exceeds the provided budget, persisting
// whatever subset of results was collected so far. Duplicate
// concurrent runs converge to the same or a very similar persisted
// state, which is what makes the scheduler's best-effort lock
// discipline safe.
func (c *FullChecker) CheckWithBudget(
	ctx context.Context,
	documentID uuid.UUID,
	links []LinkRecord,
	budget time.Duration,
) (*Result, error) {

	var broken []state.BrokenLink

	startedAt := c.config.Clock.Now()
	targets := uniqueProbeTargets(links)
	checkedCount := 0
	partial := false

	for _, target := range targets {
		if budget > 0 && c.config.Clock.Now().Sub(startedAt) >= budget {
			partial = true
			break
		}

		if err := c.config.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("full check: %w", err)
		}

		checkedCount++
		if !c.config.Prober.IsReachable(ctx, target.URL) {
			broken = append(
				broken, state.BrokenLink{URL: target.URL, RawTag: target.RawTag},
			)
		}
	}

	if err := c.persist(documentID, links, broken); err != nil {
		return nil, err
	}

	c.config.Logger.WithFields(logrus.Fields{
		"document_id":  documentID,
		"probed":       checkedCount,
		"broken_count": len(broken),
		"partial":      partial,
		"elapsed_time": c.config.Clock.Now().Sub(startedAt).String(),
	}).Info("completed full check pass")

	return &Result{
		BrokenLinks:  broken,
		CheckedCount: checkedCount,
		Partial:      partial,
	}, nil
}

func (c *FullChecker) persist(
	documentID uuid.UUID, links []LinkRecord, broken []state.BrokenLink,
) error {

	if c.config.States == nil {
		return fmt.Errorf("full check: state store not provided")
	}

	if err := c.config.States.Upsert(&state.DocumentState{
		DocumentID:  documentID,
		BrokenLinks: broken,
		Fingerprint: Fingerprint(links),
		CheckedAt:   c.config.Clock.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("full check: %w", err)
	}

	return nil
}
