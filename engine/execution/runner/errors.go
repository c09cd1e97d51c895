package runner

import (
	"errors"

	"github.com/onflow/rollup-node/da"
	"github.com/onflow/rollup-node/engine/execution/storehouse"
	"github.com/onflow/rollup-node/module/irrecoverable"
	"github.com/onflow/rollup-node/storage"
)

var (
	// ErrFinalityViolation is returned when the DA layer reorganized a height
	// that was already committed.
	ErrFinalityViolation = errors.New("reorg below the last committed height")

	// ErrUnreconcilableFork is returned when the common ancestor of a fork
	// cannot be determined within the retained window.
	ErrUnreconcilableFork = errors.New("fork cannot be reconciled")

	// ErrSTFExecution is returned when the state transition function fails.
	ErrSTFExecution = errors.New("state transition failed")
)

var fatalErrors = []error{
	da.ErrNoBlockAvailable,
	ErrFinalityViolation,
	ErrUnreconcilableFork,
	ErrSTFExecution,
	storehouse.ErrMissingParent,
	storehouse.ErrNonConsecutiveHeight,
	storehouse.ErrSnapshotExists,
	storehouse.ErrUnknownSnapshot,
	storehouse.ErrCannotDiscardFinalized,
	storehouse.ErrOutOfOrderCommit,
	storehouse.ErrRootMismatch,
	storage.ErrDataMismatch,
	storage.ErrNonSequentialCommit,
	storage.ErrNotBootstrapped,
}

// IsFatal returns true if the error ends block processing and requires
// operator attention. Context cancellation is not fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	for _, fatal := range fatalErrors {
		if errors.Is(err, fatal) {
			return true
		}
	}
	return irrecoverable.IsException(err)
}
