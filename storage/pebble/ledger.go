package pebble

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/rs/zerolog"

	"github.com/onflow/rollup-node/model/rollup"
	"github.com/onflow/rollup-node/module"
	"github.com/onflow/rollup-node/module/counters"
	"github.com/onflow/rollup-node/storage"
	"github.com/onflow/rollup-node/storage/pebble/operation"
)

// Ledger is the pebble backed record of committed heights. Every commit is
// written together with the head slot in one synced batch, so after a crash
// the head slot always names the last durable commit.
type Ledger struct {
	db      *pebble.DB
	log     zerolog.Logger
	metrics module.LedgerMetrics

	mu           sync.Mutex // serializes writers
	head         rollup.HeadSlot
	bootstrapped bool

	committedHeight counters.StrictMonotonousCounter
}

var _ storage.Ledger = (*Ledger)(nil)

// NewLedger loads the head slot from the database. An empty database is valid,
// the first RecordCommit bootstraps it at any height.
// No errors are expected during normal operations.
func NewLedger(log zerolog.Logger, db *pebble.DB, metrics module.LedgerMetrics) (*Ledger, error) {
	l := &Ledger{
		db:      db,
		log:     log.With().Str("component", "ledger").Logger(),
		metrics: metrics,
	}

	var head rollup.HeadSlot
	err := operation.RetrieveHeadSlot(&head)(db)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		l.committedHeight = counters.NewMonotonousCounter(0)
		l.log.Info().Msg("ledger is empty")
		return l, nil
	case err != nil:
		return nil, fmt.Errorf("could not load head slot: %w", err)
	}

	l.head = head
	l.bootstrapped = true
	l.committedHeight = counters.NewMonotonousCounter(head.Height)

	l.log.Info().
		Uint64("height", head.Height).
		Hex("block_id", head.BlockID[:]).
		Hex("root", head.Root[:]).
		Msg("ledger loaded")

	return l, nil
}

// HeadSlot returns the last committed height, block and root.
// Expected errors during normal operations:
//   - storage.ErrNotFound if nothing was committed yet
func (l *Ledger) HeadSlot() (rollup.HeadSlot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.bootstrapped {
		return rollup.HeadSlot{}, storage.ErrNotFound
	}
	return l.head, nil
}

// CommittedHeight returns the last committed height without locking. Returns
// 0 if nothing was committed yet.
func (l *Ledger) CommittedHeight() uint64 {
	return l.committedHeight.Value()
}

// RecordCommit durably appends the committed height and moves the head slot to it.
// Expected errors during normal operations:
//   - storage.ErrDataMismatch if the height is recorded with a different block or root
//   - storage.ErrNonSequentialCommit if height is not the successor of the head slot
func (l *Ledger) RecordCommit(height uint64, blockID rollup.Identifier, root rollup.StateRoot) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot := rollup.HeadSlot{Height: height, BlockID: blockID, Root: root}

	if l.bootstrapped {
		if height <= l.head.Height {
			return l.checkRecorded(slot)
		}
		if height != l.head.Height+1 {
			return fmt.Errorf("cannot record height %d on top of head slot %d: %w",
				height, l.head.Height, storage.ErrNonSequentialCommit)
		}
	}

	start := time.Now()

	batch := l.db.NewBatch()
	defer batch.Close()

	err := operation.InsertCommit(slot)(batch)
	if err != nil {
		return fmt.Errorf("could not add commit at height %d to batch: %w", height, err)
	}
	err = operation.UpsertHeadSlot(slot)(batch)
	if err != nil {
		return fmt.Errorf("could not add head slot to batch: %w", err)
	}
	err = batch.Commit(pebble.Sync)
	if err != nil {
		return fmt.Errorf("could not commit height %d: %w", height, err)
	}

	l.head = slot
	l.bootstrapped = true
	l.committedHeight.Set(height)

	l.metrics.LedgerCommitRecorded(height, time.Since(start))
	l.log.Debug().
		Uint64("height", height).
		Hex("block_id", blockID[:]).
		Msg("commit recorded")

	return nil
}

// checkRecorded verifies that an already recorded height matches slot.
func (l *Ledger) checkRecorded(slot rollup.HeadSlot) error {
	var recorded rollup.HeadSlot
	err := operation.RetrieveCommit(slot.Height, &recorded)(l.db)
	if errors.Is(err, storage.ErrNotFound) {
		// heights below the first recorded one were never part of this ledger
		return fmt.Errorf("cannot record height %d below the first recorded height: %w",
			slot.Height, storage.ErrNonSequentialCommit)
	}
	if err != nil {
		return fmt.Errorf("could not retrieve commit at height %d: %w", slot.Height, err)
	}

	if recorded != slot {
		return fmt.Errorf("height %d already recorded with block %v and root %v: %w",
			slot.Height, recorded.BlockID, recorded.Root, storage.ErrDataMismatch)
	}

	return nil
}

// CommitAtHeight returns the committed block and root at the given height.
// Expected errors during normal operations:
//   - storage.ErrNotFound if the height was not committed
func (l *Ledger) CommitAtHeight(height uint64) (rollup.HeadSlot, error) {
	var slot rollup.HeadSlot
	err := operation.RetrieveCommit(height, &slot)(l.db)
	if err != nil {
		return rollup.HeadSlot{}, fmt.Errorf("could not retrieve commit at height %d: %w", height, err)
	}
	return slot, nil
}

// RootAtHeight returns the committed state root at the given height.
// Expected errors during normal operations:
//   - storage.ErrNotFound if the height was not committed
func (l *Ledger) RootAtHeight(height uint64) (rollup.StateRoot, error) {
	slot, err := l.CommitAtHeight(height)
	if err != nil {
		return rollup.EmptyStateRoot, err
	}
	return slot.Root, nil
}

// Rollback removes the commits above height and moves the head slot back to
// the commit at height. Rolling back to the head slot is a no-op.
// Rollback is an offline operation and must not run concurrently with RecordCommit.
// Expected errors during normal operations:
//   - storage.ErrNotFound if height was never committed
func (l *Ledger) Rollback(height uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.bootstrapped {
		return fmt.Errorf("cannot roll back empty ledger to height %d: %w", height, storage.ErrNotFound)
	}
	if height > l.head.Height {
		return fmt.Errorf("cannot roll back to height %d above head slot %d: %w",
			height, l.head.Height, storage.ErrNotFound)
	}
	if height == l.head.Height {
		return nil
	}

	var target rollup.HeadSlot
	err := operation.RetrieveCommit(height, &target)(l.db)
	if err != nil {
		return fmt.Errorf("could not retrieve commit at height %d: %w", height, err)
	}

	batch := l.db.NewBatch()
	defer batch.Close()

	for h := height + 1; h <= l.head.Height; h++ {
		err = operation.RemoveCommit(h)(batch)
		if err != nil {
			return fmt.Errorf("could not add removal of height %d to batch: %w", h, err)
		}
	}
	err = operation.UpsertHeadSlot(target)(batch)
	if err != nil {
		return fmt.Errorf("could not add head slot to batch: %w", err)
	}
	err = batch.Commit(pebble.Sync)
	if err != nil {
		return fmt.Errorf("could not commit rollback to height %d: %w", height, err)
	}

	l.log.Warn().
		Uint64("from_height", l.head.Height).
		Uint64("to_height", height).
		Msg("ledger rolled back")

	l.head = target
	l.committedHeight = counters.NewMonotonousCounter(height)
	return nil
}
