package scheduler

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/mycok/uCheck/checkstate/state"
	"github.com/mycok/uCheck/document"
	"github.com/mycok/uCheck/linkcheck"
	"github.com/mycok/uCheck/locker"
)

const (
	defaultScheduleLockTTL = 60 * time.Second
	defaultRunLockTTL      = 30 * time.Second
	defaultCheckBudget     = 55 * time.Second
	defaultQueueSize       = 64
)

// BatchCheckAPI defines a minimum set of API methods the scheduler
// requires for running time-boxed background checks.
type BatchCheckAPI interface {
	// CheckWithBudget probes links one at a time, aborting once the
	// elapsed wall-clock time exceeds the budget, and persists the
	// collected subset of results.
	CheckWithBudget(
		ctx context.Context,
		documentID uuid.UUID,
		links []linkcheck.LinkRecord,
		budget time.Duration,
	) (*linkcheck.Result, error)
}

// ReportAPI defines a minimum set of API methods for cataloguing
// broken-link entries after a background check completes.
type ReportAPI interface {
	// Put replaces the catalogued broken-link entries for a document.
	Put(documentID uuid.UUID, broken []state.BrokenLink) error
}

// Config defines configurations for the background check scheduler
// service.
type Config struct {
	// An API for running the time-boxed background check.
	Checker BatchCheckAPI

	// An API for reading the latest raw markup of a document.
	Documents document.Source

	// An API for acquiring and releasing the TTL advisory flags that
	// de-duplicate background runs.
	Locks locker.Locker

	// An optional API for updating the searchable broken-link
	// catalogue after each run.
	Reports ReportAPI

	// TTL for the schedule flag set when a check request is accepted.
	// If not specified, 60 seconds will be used instead.
	ScheduleLockTTL time.Duration

	// TTL for the run flag held while a background check executes.
	// If not specified, 30 seconds will be used instead.
	RunLockTTL time.Duration

	// Wall-clock budget for a single background check pass. If not
	// specified, 55 seconds will be used instead.
	CheckBudget time.Duration

	// Capacity of the pending-check queue. If not specified, 64 will
	// be used instead.
	QueueSize int

	// A clock instance for generating time-related events. If not
	// specified, the default wall-clock will be used instead.
	Clock clock.Clock

	// The logger to use. If not defined an output-discarding logger
	// will be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.Checker == nil {
		err = multierror.Append(err, fmt.Errorf("batch checker not provided"))
	}

	if config.Documents == nil {
		err = multierror.Append(err, fmt.Errorf("document source not provided"))
	}

	if config.Locks == nil {
		err = multierror.Append(err, fmt.Errorf("locker not provided"))
	}

	if config.ScheduleLockTTL <= 0 {
		config.ScheduleLockTTL = defaultScheduleLockTTL
	}

	if config.RunLockTTL <= 0 {
		config.RunLockTTL = defaultRunLockTTL
	}

	if config.CheckBudget <= 0 {
		config.CheckBudget = defaultCheckBudget
	}

	if config.QueueSize <= 0 {
		config.QueueSize = defaultQueueSize
	}

	if config.Clock == nil {
		config.Clock = clock.WallClock
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
