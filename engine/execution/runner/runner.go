package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/onflow/rollup-node/da"
	"github.com/onflow/rollup-node/engine/execution/stf"
	"github.com/onflow/rollup-node/engine/execution/storehouse"
	"github.com/onflow/rollup-node/model/rollup"
	"github.com/onflow/rollup-node/module"
	"github.com/onflow/rollup-node/module/counters"
	"github.com/onflow/rollup-node/module/events"
	"github.com/onflow/rollup-node/module/irrecoverable"
	"github.com/onflow/rollup-node/storage"
)

// Runner pulls blocks from the DA layer, executes them and commits the
// resulting state once it is final. Run is the single owner of the storage
// manager, only the state accessors may be called concurrently.
type Runner struct {
	log         zerolog.Logger
	cfg         Config
	da          da.Service
	stf         stf.StateTransition
	states      *storehouse.Manager
	ledger      storage.Ledger
	broadcaster *events.CommitBroadcaster
	metrics     module.RunnerMetrics
	finality    FinalityRule

	state           *atomic.Int32
	stateRoot       *atomic.Pointer[rollup.StateRoot]
	tipHeight       *atomic.Uint64
	committedHeight counters.StrictMonotonousCounter

	// set while diverging, the fork block that did not extend the canonical chain
	divergent *rollup.Block
	// set while recovering, the height after which the runner is following again
	recoverTo uint64
}

// New creates a Runner resuming from the ledger head slot, which the storage
// manager must be rooted at.
// Expected errors during normal operations:
//   - storage.ErrNotBootstrapped if the ledger holds no head slot
func New(
	log zerolog.Logger,
	cfg Config,
	service da.Service,
	transition stf.StateTransition,
	states *storehouse.Manager,
	ledger storage.Ledger,
	broadcaster *events.CommitBroadcaster,
	metrics module.RunnerMetrics,
) (*Runner, error) {
	head, err := ledger.HeadSlot()
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("ledger has no head slot: %w", storage.ErrNotBootstrapped)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read head slot: %w", err)
	}
	if states.Head() != head {
		return nil, irrecoverable.NewExceptionf("storage manager rooted at %v, ledger head slot is %v", states.Head(), head)
	}

	finality, err := NewFinalityRule(cfg.FinalityMode, cfg.FinalityDepth, service)
	if err != nil {
		return nil, err
	}

	tip, ok := states.Snapshot(states.Tip())
	if !ok {
		return nil, irrecoverable.NewExceptionf("canonical tip %v not in the forest", states.Tip())
	}

	r := &Runner{
		log:             log.With().Str("component", "runner").Logger(),
		cfg:             cfg,
		da:              service,
		stf:             transition,
		states:          states,
		ledger:          ledger,
		broadcaster:     broadcaster,
		metrics:         metrics,
		finality:        finality,
		state:           atomic.NewInt32(int32(Following)),
		stateRoot:       atomic.NewPointer(&tip.Root),
		tipHeight:       atomic.NewUint64(tip.ID.Height),
		committedHeight: counters.NewMonotonousCounter(head.Height),
	}
	return r, nil
}

// StateRoot returns the root of the canonical tip.
func (r *Runner) StateRoot() rollup.StateRoot {
	return *r.stateRoot.Load()
}

// State returns the current stage of the reorg protocol.
func (r *Runner) State() State {
	return State(r.state.Load())
}

// TipHeight returns the height of the canonical tip.
func (r *Runner) TipHeight() uint64 {
	return r.tipHeight.Load()
}

// CommittedHeight returns the last committed height.
func (r *Runner) CommittedHeight() uint64 {
	return r.committedHeight.Value()
}

func (r *Runner) setState(state State) {
	previous := State(r.state.Swap(int32(state)))
	if previous != state {
		r.log.Info().
			Str("from", previous.String()).
			Str("to", state.String()).
			Uint64("tip", r.tipHeight.Load()).
			Msg("runner state changed")
	}
}

// Run processes blocks until the context is cancelled, the stop height is
// reached or a fatal error occurs. Fatal errors are returned, see IsFatal.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info().
		Uint64("tip", r.tipHeight.Load()).
		Str("finality", string(r.cfg.FinalityMode)).
		Uint64("finality_depth", r.cfg.FinalityDepth).
		Msg("runner started")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		tip := r.states.Tip()
		if r.cfg.StopAtHeight > 0 && tip.Height >= r.cfg.StopAtHeight && r.State() == Following {
			r.log.Info().Uint64("height", tip.Height).Msg("stop height reached")
			return nil
		}

		err := r.step(ctx, tip)
		if err != nil {
			if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				return ctx.Err()
			}
			r.log.Error().Err(err).Str("state", r.State().String()).Msg("block processing failed")
			return err
		}
	}
}

// step advances the state machine by one block.
func (r *Runner) step(ctx context.Context, tip rollup.SnapshotID) error {
	if r.State() == Diverging {
		return r.diverge(ctx)
	}

	height := tip.Height + 1
	block, err := r.da.BlockAt(ctx, height)
	if err != nil {
		return fmt.Errorf("could not fetch block at height %d: %w", height, err)
	}
	if block.Height() != height {
		return fmt.Errorf("requested height %d, DA returned block %v at height %d: %w",
			height, block.ID(), block.Height(), ErrUnreconcilableFork)
	}

	diverged, err := r.diverged(ctx, block, tip)
	if err != nil {
		return err
	}
	if diverged {
		r.divergent = block
		r.setState(Diverging)
		return nil
	}

	err = r.apply(ctx, block, tip)
	if err != nil {
		return err
	}

	if r.State() == Recovering && block.Height() >= r.recoverTo {
		r.setState(Following)
	}

	return r.commitFinal(ctx)
}

// diverged returns true if block does not extend the canonical tip.
func (r *Runner) diverged(ctx context.Context, block *rollup.Block, tip rollup.SnapshotID) (bool, error) {
	if known, ok := r.states.BlockIDAt(block.Height()); ok && known != block.ID() {
		return true, nil
	}

	if block.Header.HasParent() {
		return *block.Header.ParentID != tip.BlockID, nil
	}

	// without parent links, the tip is fetched again to detect a reorg below block
	current, err := r.da.BlockAt(ctx, tip.Height)
	if err != nil {
		return false, fmt.Errorf("could not fetch block at height %d: %w", tip.Height, err)
	}
	return current.ID() != tip.BlockID, nil
}

// apply executes block on top of the canonical tip.
func (r *Runner) apply(ctx context.Context, block *rollup.Block, tip rollup.SnapshotID) error {
	parent, ok := r.states.Snapshot(tip)
	if !ok {
		return fmt.Errorf("canonical tip %v not in the forest: %w", tip, storehouse.ErrMissingParent)
	}

	start := time.Now()
	root, err := r.stf.Apply(ctx, parent.Root, block.Blobs, block.Validity)
	if err != nil {
		return fmt.Errorf("could not execute block %v at height %d: %w: %w", block.ID(), block.Height(), ErrSTFExecution, err)
	}
	duration := time.Since(start)

	blockID := block.ID()
	_, err = r.states.NewSnapshot(tip, block.Height(), blockID, root)
	if err != nil {
		return fmt.Errorf("could not create snapshot for block %v: %w", blockID, err)
	}

	r.stateRoot.Store(&root)
	r.tipHeight.Store(block.Height())
	r.metrics.BlockApplied(block.Height(), duration)
	r.metrics.PendingSnapshots(r.states.PendingCount())

	r.log.Debug().
		Uint64("height", block.Height()).
		Hex("block_id", blockID[:]).
		Hex("root", root[:]).
		Int("blobs", len(block.Blobs)).
		Dur("duration", duration).
		Msg("block applied")

	return nil
}

// commitFinal commits canonical snapshots in height order for as long as the
// lowest pending one is final. Each commit is persisted by the storage
// manager first, then recorded in the ledger, then broadcast.
func (r *Runner) commitFinal(ctx context.Context) error {
	tip := r.states.Tip()
	for {
		head := r.states.Head()
		height := head.Height + 1
		if height > tip.Height {
			return nil
		}

		final, err := r.finality.IsFinal(ctx, height, tip.Height)
		if err != nil {
			return fmt.Errorf("could not check finality of height %d: %w", height, err)
		}
		if !final {
			return nil
		}

		snapshot, ok := r.states.CanonicalAt(height)
		if !ok {
			return irrecoverable.NewExceptionf("no canonical snapshot at height %d below tip %d", height, tip.Height)
		}

		err = r.states.Commit(snapshot.ID)
		if err != nil {
			return fmt.Errorf("could not commit snapshot %v: %w", snapshot.ID, err)
		}
		err = r.ledger.RecordCommit(height, snapshot.ID.BlockID, snapshot.Root)
		if err != nil {
			return fmt.Errorf("could not record commit at height %d: %w", height, err)
		}
		if !r.committedHeight.Set(height) {
			return irrecoverable.NewExceptionf("committed height %d after %d", height, r.committedHeight.Value())
		}

		r.broadcaster.Publish(rollup.CommitNotification{Height: height, Root: snapshot.Root})
		r.metrics.SnapshotCommitted(height)
		r.metrics.PendingSnapshots(r.states.PendingCount())

		r.log.Info().
			Uint64("height", height).
			Hex("block_id", snapshot.ID.BlockID[:]).
			Hex("root", snapshot.Root[:]).
			Msg("state committed")
	}
}
