package storage

import (
	"github.com/onflow/rollup-node/model/rollup"
)

// Ledger is the durable, append-only record of committed heights.
type Ledger interface {
	// HeadSlot returns the last committed height, block and root.
	// Expected errors during normal operations:
	//   - storage.ErrNotFound if nothing was committed yet
	HeadSlot() (rollup.HeadSlot, error)

	// RecordCommit durably appends the committed height. The head slot is
	// updated atomically with the record. Recording the same height with the
	// same block and root again is a no-op.
	// Expected errors during normal operations:
	//   - storage.ErrDataMismatch if the height is recorded with a different block or root
	//   - storage.ErrNonSequentialCommit if height is not the successor of the head slot
	RecordCommit(height uint64, blockID rollup.Identifier, root rollup.StateRoot) error

	// CommitAtHeight returns the committed block and root at the given height.
	// Expected errors during normal operations:
	//   - storage.ErrNotFound if the height was not committed
	CommitAtHeight(height uint64) (rollup.HeadSlot, error)
}

// FinalizedStates stores the state roots of finalized snapshots.
type FinalizedStates interface {
	// Head returns the highest finalized snapshot.
	// Expected errors during normal operations:
	//   - storage.ErrNotFound if nothing was finalized yet
	Head() (rollup.HeadSlot, error)

	// Store persists a finalized snapshot and moves the head to it, if it is higher.
	// Storing an identical snapshot again is a no-op.
	// Expected errors during normal operations:
	//   - storage.ErrDataMismatch if a different snapshot was finalized at the same height
	Store(slot rollup.HeadSlot) error

	// ByHeight returns the finalized snapshot at the given height.
	// Expected errors during normal operations:
	//   - storage.ErrNotFound if no snapshot was finalized at the height
	ByHeight(height uint64) (rollup.HeadSlot, error)
}
