package da

import (
	"context"
	"errors"

	"github.com/onflow/rollup-node/model/rollup"
)

var (
	// ErrBlockPending is returned by a Service when the requested height is
	// not available on the DA layer yet.
	ErrBlockPending = errors.New("block is not available yet")

	// ErrNoBlockAvailable is returned once a pending block stayed unavailable
	// for every retry attempt.
	ErrNoBlockAvailable = errors.New("no block available after all retry attempts")
)

// Service is the adapter to the data availability layer.
type Service interface {
	// BlockAt returns the DA block at the given height.
	// Expected errors during normal operations:
	//   - ErrBlockPending if the height is not available yet
	BlockAt(ctx context.Context, height uint64) (*rollup.Block, error)

	// LastFinalizedHeight returns the highest height the DA layer reports as final.
	LastFinalizedHeight(ctx context.Context) (uint64, error)

	// LastFinalizedBlockHeader returns the header of the highest final block.
	LastFinalizedBlockHeader(ctx context.Context) (*rollup.Header, error)
}
