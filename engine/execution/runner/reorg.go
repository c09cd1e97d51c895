package runner

import (
	"context"
	"fmt"

	"github.com/onflow/rollup-node/model/rollup"
)

// diverge walks back from the divergent block to the last common ancestor of
// the fork and the canonical chain, discards everything above it and switches
// to Recovering. The fork is replayed by the following steps.
func (r *Runner) diverge(ctx context.Context) error {
	fork := r.divergent
	oldTip := r.states.Tip()
	head := r.states.Head()

	lca, err := r.findCommonAncestor(ctx, fork, head)
	if err != nil {
		return err
	}

	// every canonical snapshot above the ancestor descends from the one right above it
	if blockID, ok := r.states.BlockIDAt(lca + 1); ok {
		err = r.states.Discard(rollup.SnapshotID{Height: lca + 1, BlockID: blockID})
		if err != nil {
			return fmt.Errorf("could not discard snapshots above height %d: %w", lca, err)
		}
	}

	ancestor, ok := r.states.CanonicalAt(lca)
	if !ok {
		return fmt.Errorf("common ancestor at height %d not in the forest: %w", lca, ErrUnreconcilableFork)
	}
	r.stateRoot.Store(&ancestor.Root)
	r.tipHeight.Store(lca)

	depth := oldTip.Height - lca
	forkID := fork.ID()
	r.metrics.ReorgHandled(depth)
	r.metrics.PendingSnapshots(r.states.PendingCount())

	r.log.Warn().
		Uint64("common_ancestor", lca).
		Uint64("old_tip", oldTip.Height).
		Uint64("fork_tip", fork.Height()).
		Uint64("depth", depth).
		Hex("fork_block_id", forkID[:]).
		Msg("DA reorg detected, replaying fork")

	r.divergent = nil
	r.recoverTo = fork.Height()
	r.setState(Recovering)
	return nil
}

// findCommonAncestor returns the height of the highest block the fork shares
// with the canonical chain.
func (r *Runner) findCommonAncestor(ctx context.Context, fork *rollup.Block, head rollup.HeadSlot) (uint64, error) {
	child := fork
	for {
		height := child.Height() - 1

		if r.cfg.MaxReorgDepth > 0 && fork.Height()-height > r.cfg.MaxReorgDepth {
			return 0, fmt.Errorf("no common ancestor within %d heights below %d: %w",
				r.cfg.MaxReorgDepth, fork.Height(), ErrUnreconcilableFork)
		}

		known, ok := r.states.BlockIDAt(height)
		if !ok {
			return 0, fmt.Errorf("height %d left the retained window: %w", height, ErrUnreconcilableFork)
		}

		// with parent links the child names the block below it; without, it is fetched
		var parentID rollup.Identifier
		var parent *rollup.Block
		if child.Header.HasParent() {
			parentID = *child.Header.ParentID
		} else {
			var err error
			parent, err = r.fetchForkBlock(ctx, height)
			if err != nil {
				return 0, err
			}
			parentID = parent.ID()
		}

		if parentID == known {
			return height, nil
		}

		if height <= head.Height {
			return 0, fmt.Errorf("fork replaces committed block %v at height %d (committed up to %d): %w",
				known, height, head.Height, ErrFinalityViolation)
		}

		if parent == nil {
			var err error
			parent, err = r.fetchForkBlock(ctx, height)
			if err != nil {
				return 0, err
			}
			if parent.ID() != parentID {
				return 0, fmt.Errorf("block %v at height %d is not the parent %v of the fork: %w",
					parent.ID(), height, parentID, ErrUnreconcilableFork)
			}
		}

		child = parent
	}
}

func (r *Runner) fetchForkBlock(ctx context.Context, height uint64) (*rollup.Block, error) {
	block, err := r.da.BlockAt(ctx, height)
	if err != nil {
		return nil, fmt.Errorf("could not fetch fork block at height %d: %w", height, err)
	}
	if block.Height() != height {
		return nil, fmt.Errorf("requested height %d, DA returned height %d: %w", height, block.Height(), ErrUnreconcilableFork)
	}
	return block, nil
}
