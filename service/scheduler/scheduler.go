/*
	scheduler package implements the background check scheduler for the
	uCheck application. Each document moves through an
	Idle -> Scheduled -> Running -> Idle cycle:

		- Schedule() marks the document as scheduled, try-acquires the
		run flag and hands the document id to the pending queue without
		waiting for the check to execute.
		- The service's worker loop consumes the queue and runs a
		time-boxed full check over the latest stored content,
		persisting partial or complete results.
		- Both advisory flags are released unconditionally when the run
		finishes; their TTLs self-heal the state if the process dies
		mid-run.

	The flags only de-duplicate runs on a best-effort basis. Two racing
	schedule requests may both proceed, which is acceptable because a
	batch run's only effect is an idempotent whole-state upsert.
*/

package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mycok/uCheck/linkcheck"
)

// Service represents the background check scheduler service for the
// uCheck application. it satisfies the service.Service interface.
type Service struct {
	config  Config
	pending chan uuid.UUID
}

// New creates and returns a fully configured scheduler service
// instance.
func New(config Config) (*Service, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("scheduler service: config validation failed: %w", err)
	}

	return &Service{
		config:  config,
		pending: make(chan uuid.UUID, config.QueueSize),
	}, nil
}

// Name returns the name of the service.
func (svc *Service) Name() string { return "scheduler" }

// Schedule requests a background check for the provided document. The
// call never blocks on the check itself: it sets the schedule flag,
// try-acquires the run flag and enqueues the document id for the
// worker loop. When another run is already in flight, or the queue is
// full, the request is dropped silently; the document will be picked
// up again on its next save.
func (svc *Service) Schedule(documentID uuid.UUID) error {
	if documentID == uuid.Nil {
		return fmt.Errorf("schedule check: missing document ID")
	}

	// The schedule flag is set unconditionally; it only records that a
	// check was requested recently.
	_ = svc.config.Locks.Acquire(scheduleKey(documentID), svc.config.ScheduleLockTTL)

	if !svc.config.Locks.Acquire(runKey(documentID), svc.config.RunLockTTL) {
		svc.config.Logger.WithField("document_id", documentID).Debug(
			"skipping schedule request: another run is in flight",
		)

		return nil
	}

	select {
	case svc.pending <- documentID:
	default:
		// Queue full. Give the run flag back so a later request can
		// try again.
		svc.config.Locks.Release(runKey(documentID))

		svc.config.Logger.WithField("document_id", documentID).Warn(
			"dropping schedule request: pending queue is full",
		)
	}

	return nil
}

// Run executes the service and blocks until the context gets cancelled
// or an error occurs.
func (svc *Service) Run(ctx context.Context) error {
	svc.config.Logger.WithField(
		"check_budget", svc.config.CheckBudget.String(),
	).Info("starting service")
	defer svc.config.Logger.Info("stopped service")

	for {
		select {
		case <-ctx.Done():
			return nil
		case documentID := <-svc.pending:
			svc.runBatch(ctx, documentID)
		}
	}
}

// runBatch executes a single time-boxed background check. Failures are
// logged and absorbed; nothing that happens here may take down the
// worker loop.
func (svc *Service) runBatch(ctx context.Context, documentID uuid.UUID) {
	defer func() {
		svc.config.Locks.Release(runKey(documentID))
		svc.config.Locks.Release(scheduleKey(documentID))
	}()

	logger := svc.config.Logger.WithField("document_id", documentID)

	content, err := svc.config.Documents.Content(documentID)
	if err != nil {
		logger.WithField("err", err).Warn("skipping background check: unable to load document content")

		return
	}

	res, err := svc.config.Checker.CheckWithBudget(
		ctx, documentID, linkcheck.ExtractLinks(content), svc.config.CheckBudget,
	)
	if err != nil {
		logger.WithField("err", err).Error("background check failed")

		return
	}

	if svc.config.Reports != nil {
		if err := svc.config.Reports.Put(documentID, res.BrokenLinks); err != nil {
			logger.WithField("err", err).Warn("unable to update broken-link report")
		}
	}

	logger.WithFields(logrus.Fields{
		"probed":       res.CheckedCount,
		"broken_count": len(res.BrokenLinks),
		"partial":      res.Partial,
	}).Info("completed background check")
}

func scheduleKey(documentID uuid.UUID) string {
	return "schedule:" + documentID.String()
}

func runKey(documentID uuid.UUID) string {
	return "run:" + documentID.String()
}
