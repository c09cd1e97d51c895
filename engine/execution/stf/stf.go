package stf

import (
	"context"

	"github.com/onflow/rollup-node/model/rollup"
)

// StateTransition is the deterministic state transition function of the rollup.
// Implementations must return the same root for the same inputs on every node.
type StateTransition interface {
	// InitChain computes the genesis state root from the genesis parameters.
	InitChain(params []byte) (rollup.StateRoot, error)

	// Apply executes the blobs of a block on top of the state identified by
	// prior and returns the resulting state root. Once started, Apply runs to
	// completion: ctx carries request scoped values only and its cancellation
	// must not interrupt the execution. The runner checks for cancellation
	// between blocks.
	Apply(ctx context.Context, prior rollup.StateRoot, blobs []rollup.Blob, cond rollup.ValidityCondition) (rollup.StateRoot, error)
}
