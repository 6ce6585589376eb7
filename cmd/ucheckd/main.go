package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/mycok/uCheck/checkstate/store/cdb"
	"github.com/mycok/uCheck/checkstate/store/es"
	memstate "github.com/mycok/uCheck/checkstate/store/memory"
	memdoc "github.com/mycok/uCheck/document/memory"
	"github.com/mycok/uCheck/linkcheck"
	memlock "github.com/mycok/uCheck/locker/memory"
	"github.com/mycok/uCheck/report"
	"github.com/mycok/uCheck/service"
	"github.com/mycok/uCheck/service/rest"
	"github.com/mycok/uCheck/service/scheduler"
)

const appName = "uCheck"

func main() {
	host, _ := os.Hostname()
	// Instantiate a root logger that will be passed to all services.
	rootLogger := logrus.New()
	logger := rootLogger.WithFields(logrus.Fields{
		"app":  appName,
		"host": host,
	})

	svcGroup, err := configureServices(logger)
	if err != nil {
		logger.WithField("err", err).Error("shutting down due to an error")

		return
	}

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	// Launch a separate process to listen and respond to os signals
	// and trigger a graceful shutdown.
	go func() {
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, syscall.SIGINT, syscall.SIGHUP)

		select {
		case s := <-signalChan:
			logger.WithField("signal", s.String()).Info("shutting down due to os signal")
			// Cancel context, this signals all services to return since
			// they all share this same context.
			cancelFn()
		case <-ctx.Done():
		}
	}()

	if err := svcGroup.Execute(ctx); err != nil {
		logger.WithField("err", err).Error("shutting down due to an error")

		return
	}

	// Shutdown due to context cancellation.
	logger.Info("shutdown complete")
}

func configureServices(logger *logrus.Entry) (service.Group, error) {
	listenAddr := flag.String(
		"rest-listen-addr", ":8080",
		"Address to listen on for incoming API requests",
	)
	numOfProbeWorkers := flag.Int(
		"check-num-probe-workers", runtime.NumCPU(),
		"Number of workers for probing links during interactive full checks."+
			" [defaults to number of CPU's]",
	)
	probeTimeout := flag.Duration(
		"check-probe-timeout", 10*time.Second,
		"Hard timeout for a single link probe",
	)
	probeInterval := flag.Duration(
		"check-probe-interval", 50*time.Millisecond,
		"Minimum pause between consecutive outbound probes",
	)
	scheduleLockTTL := flag.Duration(
		"scheduler-schedule-lock-ttl", 60*time.Second,
		"TTL for the advisory flag marking a document as scheduled",
	)
	runLockTTL := flag.Duration(
		"scheduler-run-lock-ttl", 30*time.Second,
		"TTL for the advisory flag held while a background check runs",
	)
	checkBudget := flag.Duration(
		"scheduler-check-budget", 55*time.Second,
		"Wall-clock budget for a single background check pass",
	)

	checkStateURI := flag.String(
		"check-state-uri", "in-memory://",
		"URI for connecting to a check-state data store."+
			" [supported URI's: in-memory://, postgresql://user@host:26257/ucheck?sslmode=disable,"+
			" es://node1:9200,...,nodeN:9200]",
	)

	flag.Parse()

	stateStore, err := getStateStore(*checkStateURI)
	if err != nil {
		return nil, err
	}

	reports, err := report.NewInMemoryIndex()
	if err != nil {
		return nil, err
	}

	var (
		locks     = memlock.NewInMemoryLocker(nil)
		documents = memdoc.NewInMemoryStore()
		prober    = linkcheck.NewProber(nil, *probeTimeout)
		// One shared limiter caps the total outbound probe rate across
		// every concurrent check invocation.
		limiter = rate.NewLimiter(rate.Every(*probeInterval), 1)
	)

	fullChecker, err := linkcheck.NewFullChecker(linkcheck.FullCheckerConfig{
		Prober:            prober,
		States:            stateStore,
		NumOfProbeWorkers: *numOfProbeWorkers,
		Limiter:           limiter,
		Logger:            logger.WithField("component", "full-checker"),
	})
	if err != nil {
		return nil, err
	}

	diffChecker, err := linkcheck.NewDifferentialChecker(linkcheck.DifferentialCheckerConfig{
		Prober:  prober,
		States:  stateStore,
		Limiter: limiter,
		Logger:  logger.WithField("component", "differential-checker"),
	})
	if err != nil {
		return nil, err
	}

	var svc service.Service
	var svcGroup service.Group

	schedulerSvc, err := scheduler.New(scheduler.Config{
		Checker:         fullChecker,
		Documents:       documents,
		Locks:           locks,
		Reports:         reports,
		ScheduleLockTTL: *scheduleLockTTL,
		RunLockTTL:      *runLockTTL,
		CheckBudget:     *checkBudget,
		Logger:          logger.WithField("service", "scheduler"),
	})
	if err != nil {
		return nil, err
	}
	svcGroup = append(svcGroup, schedulerSvc)

	if svc, err = rest.New(rest.Config{
		FullChecker: fullChecker,
		DiffChecker: diffChecker,
		States:      stateStore,
		Documents:   documents,
		Scheduler:   schedulerSvc,
		Reports:     reports,
		ListenAddr:  *listenAddr,
		Logger:      logger.WithField("service", "rest"),
	}); err != nil {
		return nil, err
	}
	svcGroup = append(svcGroup, svc)

	return svcGroup, nil
}

func getStateStore(checkStateURI string) (linkcheck.StateStore, error) {
	if checkStateURI == "" {
		return nil, fmt.Errorf("check-state URI must be specified with --check-state-uri")
	}

	uri, err := url.Parse(checkStateURI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse check-state URI: %w", err)
	}

	switch uri.Scheme {
	case "in-memory":
		return memstate.NewInMemoryStore(), nil
	case "postgresql":
		return cdb.NewCockroachDBStore(checkStateURI)
	case "es":
		nodes := strings.Split(uri.Host, ",")
		for i := 0; i < len(nodes); i++ {
			nodes[i] = "http://" + nodes[i]
		}

		return es.NewElasticsearchStore(nodes, false)
	default:
		return nil, fmt.Errorf("unsupported check-state URI scheme: %q", uri.Scheme)
	}
}
