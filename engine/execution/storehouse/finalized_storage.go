package storehouse

import (
	"fmt"

	"github.com/onflow/rollup-node/model/rollup"
	"github.com/onflow/rollup-node/storage"
)

// FinalizedStorage is a read-only view of finalized state roots, pinned to
// the finalized head at the time it was created. It only reads committed
// database records and may be used concurrently with the Manager.
type FinalizedStorage struct {
	states storage.FinalizedStates
	head   rollup.HeadSlot
}

func newFinalizedStorage(states storage.FinalizedStates, head rollup.HeadSlot) *FinalizedStorage {
	return &FinalizedStorage{
		states: states,
		head:   head,
	}
}

// Head returns the finalized head the view is pinned to.
func (s *FinalizedStorage) Head() rollup.HeadSlot {
	return s.head
}

// RootHash returns the finalized root at the given height.
// Expected errors during normal operations:
//   - storage.ErrNotFound if the height is above the pinned head or was never finalized
func (s *FinalizedStorage) RootHash(height uint64) (rollup.StateRoot, error) {
	if height > s.head.Height {
		return rollup.EmptyStateRoot, fmt.Errorf("height %d is above the finalized head %d: %w",
			height, s.head.Height, storage.ErrNotFound)
	}

	slot, err := s.states.ByHeight(height)
	if err != nil {
		return rollup.EmptyStateRoot, fmt.Errorf("could not retrieve finalized root at height %d: %w", height, err)
	}
	return slot.Root, nil
}
