package cmd

import (
	"context"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/dgraph-io/badger/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/onflow/rollup-node/config"
	"github.com/onflow/rollup-node/da"
	"github.com/onflow/rollup-node/da/mockda"
	"github.com/onflow/rollup-node/engine/execution/runner"
	"github.com/onflow/rollup-node/engine/execution/stf"
	"github.com/onflow/rollup-node/engine/execution/storehouse"
	"github.com/onflow/rollup-node/model/rollup"
	"github.com/onflow/rollup-node/module/component"
	"github.com/onflow/rollup-node/module/events"
	"github.com/onflow/rollup-node/module/irrecoverable"
	"github.com/onflow/rollup-node/module/metrics"
	pebblestorage "github.com/onflow/rollup-node/storage/pebble"
)

// node holds the components of a running rollup node. Its workers are the
// runner, the metrics server and the commit logger.
type node struct {
	*component.ComponentManager

	log         zerolog.Logger
	cfg         *config.Config
	ledgerDB    *pebble.DB
	statesDB    *badger.DB
	states      *storehouse.Manager
	broadcaster *events.CommitBroadcaster
	commits     *events.Subscription
	runner      *runner.Runner
	server      *metrics.Server

	// stopped is closed when the runner returned, runErr holds its result
	// unless it was thrown.
	stopped chan struct{}
	runErr  error
}

// newNode opens the databases, bootstraps the chain state and creates the runner.
// Databases opened before a failure are closed again.
func newNode(ctx context.Context, log zerolog.Logger, cfg *config.Config) (*node, error) {
	n := &node{log: log, cfg: cfg, stopped: make(chan struct{})}
	err := n.init(ctx)
	if err != nil {
		return nil, multierror.Append(err, n.close()).ErrorOrNil()
	}

	builder := component.NewComponentManagerBuilder().
		AddWorker(n.runnerWorker).
		AddWorker(n.commitLoggerWorker)
	if n.server != nil {
		builder.AddWorker(n.metricsWorker)
	}
	n.ComponentManager = builder.Build()

	return n, nil
}

func (n *node) init(ctx context.Context) error {
	cfg, log := n.cfg, n.log

	registry := prometheus.NewRegistry()
	collector := metrics.NewRunnerCollector(registry)
	if cfg.MetricsPort > 0 {
		n.server = metrics.NewServer(log, cfg.MetricsPort, registry)
	}

	var err error
	n.ledgerDB, err = pebblestorage.OpenDefaultPebbleDB(cfg.LedgerDir())
	if err != nil {
		return fmt.Errorf("could not open ledger database: %w", err)
	}
	ledger, err := pebblestorage.NewLedger(log, n.ledgerDB, collector)
	if err != nil {
		return fmt.Errorf("could not create ledger: %w", err)
	}

	n.statesDB, err = badger.Open(badger.DefaultOptions(cfg.StatesDir()).WithLogger(nil))
	if err != nil {
		return fmt.Errorf("could not open finalized state database: %w", err)
	}

	service, err := newLocalDA(cfg)
	if err != nil {
		return err
	}
	retrying, err := da.NewRetryingService(log, service, cfg.RetryConfig(), collector)
	if err != nil {
		return fmt.Errorf("could not create DA service: %w", err)
	}

	params, err := cfg.GenesisParamsBytes()
	if err != nil {
		return err
	}
	transition := stf.NewHashSTF()
	head, err := runner.Bootstrap(ctx, log, retrying, transition, ledger, params)
	if err != nil {
		return fmt.Errorf("could not bootstrap: %w", err)
	}

	n.states, err = storehouse.NewManager(log, collector, n.statesDB, head, cfg.FinalizedCacheSize)
	if err != nil {
		return fmt.Errorf("could not create storage manager: %w", err)
	}

	n.broadcaster = events.NewCommitBroadcaster(log, cfg.NotificationBuffer, collector)
	n.commits = n.broadcaster.Subscribe()
	n.runner, err = runner.New(log, cfg.RunnerConfig(), retrying, transition, n.states, ledger, n.broadcaster, collector)
	if err != nil {
		return fmt.Errorf("could not create runner: %w", err)
	}

	return nil
}

// newLocalDA creates the in-process DA layer, holding one block per blob of
// the configured blob file.
func newLocalDA(cfg *config.Config) (*mockda.Service, error) {
	service := mockda.New(rollup.Address{}, cfg.LocalDAFinalityDepth)
	if cfg.LocalDABlobFile == "" {
		return service, nil
	}
	blobs, err := readBlobFile(cfg.LocalDABlobFile)
	if err != nil {
		return nil, err
	}
	for _, blob := range blobs {
		service.SendBlob(blob)
	}
	return service, nil
}

// run starts the workers and blocks until the runner stopped, parent is
// cancelled or a worker threw an irrecoverable error, then waits for every
// worker to shut down.
func (n *node) run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	signalerCtx, errChan := irrecoverable.WithSignaler(ctx)

	n.Start(signalerCtx)

	var thrown error
	select {
	case <-n.stopped:
	case <-ctx.Done():
	case thrown = <-errChan:
	}
	cancel()
	<-n.Done()

	if thrown == nil {
		thrown = irrecoverable.WaitError(errChan, n.Done())
	}
	if thrown != nil {
		return fmt.Errorf("irrecoverable error: %w", thrown)
	}
	return n.runErr
}

// runnerWorker runs the block processing loop. Fatal runner errors are thrown.
func (n *node) runnerWorker(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	defer close(n.stopped)
	ready()

	err := n.runner.Run(ctx)
	if err != nil && ctx.Err() == nil {
		ctx.Throw(err)
	}
	n.runErr = err
}

func (n *node) metricsWorker(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	ready()
	n.server.Start(ctx)
}

func (n *node) commitLoggerWorker(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	defer n.commits.Unsubscribe()
	ready()
	for {
		notification, err := n.commits.Next(ctx)
		if err != nil {
			return
		}
		n.log.Info().
			Uint64("height", notification.Height).
			Hex("root", notification.Root[:]).
			Msg("state committed")
	}
}

// close releases the databases. It is safe to call on a partially created node.
func (n *node) close() error {
	var result *multierror.Error
	if n.states != nil {
		result = multierror.Append(result, n.states.Close())
	}
	if n.statesDB != nil {
		result = multierror.Append(result, n.statesDB.Close())
	}
	if n.ledgerDB != nil {
		result = multierror.Append(result, n.ledgerDB.Close())
	}
	return result.ErrorOrNil()
}
