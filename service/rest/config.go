package rest

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mycok/uCheck/checkstate/state"
	"github.com/mycok/uCheck/document"
	"github.com/mycok/uCheck/linkcheck"
	"github.com/mycok/uCheck/report"
)

// FullCheckAPI defines a minimum set of API methods for running
// user-triggered exhaustive checks.
type FullCheckAPI interface {
	// Check probes every distinct non-anchor link in the set.
	Check(ctx context.Context, links []linkcheck.LinkRecord) (*linkcheck.Result, error)
}

// DiffCheckAPI defines a minimum set of API methods for running
// incremental checks against a document's stored state.
type DiffCheckAPI interface {
	// Check probes only new or previously-healthy links and persists
	// the merged result.
	Check(
		ctx context.Context, documentID uuid.UUID, links []linkcheck.LinkRecord,
	) (*linkcheck.Result, error)
}

// StateAPI defines a minimum set of API methods for reading persisted
// document check states.
type StateAPI interface {
	// Find performs a check-state lookup by document id.
	Find(documentID uuid.UUID) (*state.DocumentState, error)
}

// SchedulerAPI defines a minimum set of API methods for requesting
// fire-and-forget background checks.
type SchedulerAPI interface {
	// Schedule requests a background check for the provided document.
	Schedule(documentID uuid.UUID) error
}

// Config defines configurations for the REST API service.
type Config struct {
	// An API for running user-triggered exhaustive checks.
	FullChecker FullCheckAPI

	// An API for running incremental on-demand checks.
	DiffChecker DiffCheckAPI

	// An API for reading persisted check states.
	States StateAPI

	// An API for storing and reading document content.
	Documents document.Store

	// An API for scheduling background checks.
	Scheduler SchedulerAPI

	// An optional searchable catalogue of broken-link entries. When
	// not provided the search endpoint responds with 404.
	Reports *report.Index

	// The address to listen on for incoming API requests.
	ListenAddr string

	// The logger to use. If not defined an output-discarding logger
	// will be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.FullChecker == nil {
		err = multierror.Append(err, fmt.Errorf("full checker not provided"))
	}

	if config.DiffChecker == nil {
		err = multierror.Append(err, fmt.Errorf("differential checker not provided"))
	}

	if config.States == nil {
		err = multierror.Append(err, fmt.Errorf("state store not provided"))
	}

	if config.Documents == nil {
		err = multierror.Append(err, fmt.Errorf("document store not provided"))
	}

	if config.Scheduler == nil {
		err = multierror.Append(err, fmt.Errorf("scheduler not provided"))
	}

	if config.ListenAddr == "" {
		err = multierror.Append(err, fmt.Errorf("listen address not provided"))
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
