package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/mycok/uCheck/checkstate/state"
)

// Default pacing between outbound probes. Keeps a single check run
// from hammering target hosts.
const defaultProbeInterval = 50 * time.Millisecond

// Result captures the outcome of a single check invocation.
type Result struct {
	// BrokenLinks holds the links believed unreachable, in document
	// order, unique by URL.
	BrokenLinks []state.BrokenLink

	// CheckedCount is the number of distinct link targets that were
	// actually sent to the prober during this invocation.
	CheckedCount int

	// LinksUnchanged is true when a differential check short-circuited
	// on a fingerprint match without issuing any probes.
	LinksUnchanged bool

	// Partial is true when a time-boxed run exhausted its budget
	// before probing every link. Partial results are a subset of the
	// full results, never inconsistent with them.
	Partial bool
}

// DifferentialCheckerConfig defines configurations for the
// differential checker.
type DifferentialCheckerConfig struct {
	// An API for deciding the reachability of a single link target.
	Prober ReachabilityProber

	// An API for reading and writing persisted document check states.
	States StateStore

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

func (config *DifferentialCheckerConfig) validate() error {
	var err error

	if config.Prober == nil {
		err = multierror.Append(err, fmt.Errorf("prober not provided"))
	}

	if config.States == nil {
		err = multierror.Append(err, fmt.Errorf("state store not provided"))
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

// DifferentialChecker re-validates only the portion of a document's
// link set that changed since the last persisted check. Documents
// whose fingerprint is unchanged cost zero probes; links already known
// to be broken are trusted rather than re-verified until they leave
// the document or a full check runs.
type DifferentialChecker struct {
	config DifferentialCheckerConfig
}

// NewDifferentialChecker creates and returns a fully configured
// differential checker instance.
func NewDifferentialChecker(config DifferentialCheckerConfig) (*DifferentialChecker, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("differential checker: config validation failed: %w", err)
	}

	return &DifferentialChecker{config: config}, nil
}

// Check compares the current link set against the stored check state
// for the document, probes only new or previously-healthy links and
// persists the merged broken-link set together with the new
// fingerprint. The whole updated state is written in a single upsert.
func (c *DifferentialChecker) Check(
	ctx context.Context, documentID uuid.UUID, links []LinkRecord,
) (*Result, error) {

	if documentID == uuid.Nil {
		return nil, fmt.Errorf("differential check: %w", state.ErrMissingDocumentID)
	}

	fingerprint := Fingerprint(links)

	stored, err := c.config.States.Find(documentID)
	if err != nil {
		if !errors.Is(err, state.ErrNotFound) {
			return nil, fmt.Errorf("differential check: %w", err)
		}

		// First check for this document. Start from an empty state.
		stored = &state.DocumentState{DocumentID: documentID}
	}

	// Fast path: an unchanged link set costs zero probes.
	if stored.Fingerprint == fingerprint {
		return &Result{
			BrokenLinks:    stored.BrokenLinks,
			LinksUnchanged: true,
		}, nil
	}

	knownBroken := make(map[string]bool, len(stored.BrokenLinks))
	for _, l := range stored.BrokenLinks {
		knownBroken[l.URL] = true
	}

	// Probe only links that are neither anchors nor already recorded
	// as broken. Each distinct url is probed at most once per run.
	unreachable := make(map[string]bool)
	checkedCount := 0

	for _, target := range uniqueProbeTargets(links) {
		if knownBroken[target.URL] {
			continue
		}

		if err := c.config.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("differential check: %w", err)
		}

		checkedCount++
		if !c.config.Prober.IsReachable(ctx, target.URL) {
			unreachable[target.URL] = true
		}
	}

	// Merge the retained portion of the stored broken set with the
	// freshly discovered failures. Iterating the current links keeps
	// the result in document order and drops stale entries for urls
	// that are no longer present.
	merged := mergeBrokenLinks(links, func(url string) bool {
		return knownBroken[url] || unreachable[url]
	})

	if err := c.config.States.Upsert(&state.DocumentState{
		DocumentID:  documentID,
		BrokenLinks: merged,
		Fingerprint: fingerprint,
		CheckedAt:   c.config.Clock.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("differential check: %w", err)
	}

	c.config.Logger.WithFields(logrus.Fields{
		"document_id":  documentID,
		"probed":       checkedCount,
		"broken_count": len(merged),
	}).Debug("completed differential check pass")

	return &Result{
		BrokenLinks:  merged,
		CheckedCount: checkedCount,
	}, nil
}

// uniqueProbeTargets filters a link set down to the records the prober
// should see: anchors are excluded and duplicate urls collapse to
// their first occurrence, preserving document order. The collapsed
// list doubles as the per-invocation probe memo required to avoid
// re-probing the same url twice within one run.
func uniqueProbeTargets(links []LinkRecord) []LinkRecord {
	var targets []LinkRecord

	seen := make(map[string]struct{}, len(links))
	for _, l := range links {
		if l.IsAnchor {
			continue
		}

		if _, exists := seen[l.URL]; exists {
			continue
		}

		seen[l.URL] = struct{}{}
		targets = append(targets, l)
	}

	return targets
}

// mergeBrokenLinks walks the current link set in document order and
// retains every non-anchor link whose url the isBroken predicate
// reports as broken, collapsing duplicate urls to one entry.
func mergeBrokenLinks(
	links []LinkRecord, isBroken func(url string) bool,
) []state.BrokenLink {

	var merged []state.BrokenLink

	seen := make(map[string]struct{}, len(links))
	for _, l := range links {
		if l.IsAnchor {
			continue
		}

		if _, exists := seen[l.URL]; exists {
			continue
		}
		seen[l.URL] = struct{}{}

		if isBroken(l.URL) {
			merged = append(merged, state.BrokenLink{URL: l.URL, RawTag: l.RawTag})
		}
	}

	return merged
}
