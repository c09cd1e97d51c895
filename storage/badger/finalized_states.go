package badger

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/onflow/rollup-node/model/rollup"
	"github.com/onflow/rollup-node/module"
	"github.com/onflow/rollup-node/module/metrics"
	"github.com/onflow/rollup-node/storage"
	"github.com/onflow/rollup-node/storage/badger/operation"
)

// FinalizedStates is the badger backed store of finalized snapshot roots.
// Finalized snapshots never change, which allows reads by height to be cached.
type FinalizedStates struct {
	db    *badger.DB
	cache *Cache[uint64, rollup.HeadSlot]
}

var _ storage.FinalizedStates = (*FinalizedStates)(nil)

func NewFinalizedStates(collector module.CacheMetrics, db *badger.DB, cacheSize uint) *FinalizedStates {
	retrieve := func(height uint64) (rollup.HeadSlot, error) {
		var slot rollup.HeadSlot
		err := db.View(operation.RetrieveFinalizedState(height, &slot))
		return slot, err
	}

	return &FinalizedStates{
		db: db,
		cache: newCache[uint64, rollup.HeadSlot](collector, metrics.ResourceFinalizedRoot,
			withLimit[uint64, rollup.HeadSlot](cacheSize),
			withRetrieve(retrieve),
		),
	}
}

// Head returns the highest finalized snapshot.
// Expected errors during normal operations:
//   - storage.ErrNotFound if nothing was finalized yet
func (s *FinalizedStates) Head() (rollup.HeadSlot, error) {
	var head rollup.HeadSlot
	err := s.db.View(operation.RetrieveFinalizedHead(&head))
	if err != nil {
		return rollup.HeadSlot{}, fmt.Errorf("could not retrieve finalized head: %w", err)
	}
	return head, nil
}

// Store persists a finalized snapshot and moves the head to it, if it is higher.
// Expected errors during normal operations:
//   - storage.ErrDataMismatch if a different snapshot was finalized at the same height
func (s *FinalizedStates) Store(slot rollup.HeadSlot) error {
	err := operation.RetryOnConflict(s.db.Update, func(tx *badger.Txn) error {
		err := operation.InsertFinalizedState(slot)(tx)
		if errors.Is(err, storage.ErrAlreadyExists) {
			var stored rollup.HeadSlot
			err = operation.RetrieveFinalizedState(slot.Height, &stored)(tx)
			if err != nil {
				return fmt.Errorf("could not retrieve finalized state at height %d: %w", slot.Height, err)
			}
			if stored != slot {
				return fmt.Errorf("height %d finalized with block %v and root %v: %w",
					slot.Height, stored.BlockID, stored.Root, storage.ErrDataMismatch)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("could not insert finalized state at height %d: %w", slot.Height, err)
		}

		var head rollup.HeadSlot
		err = operation.RetrieveFinalizedHead(&head)(tx)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("could not retrieve finalized head: %w", err)
		}
		if errors.Is(err, storage.ErrNotFound) || slot.Height > head.Height {
			return operation.UpsertFinalizedHead(slot)(tx)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Insert(slot.Height, slot)
	return nil
}

// ByHeight returns the finalized snapshot at the given height.
// Expected errors during normal operations:
//   - storage.ErrNotFound if no snapshot was finalized at the height
func (s *FinalizedStates) ByHeight(height uint64) (rollup.HeadSlot, error) {
	return s.cache.Get(height)
}

// Rollback removes the snapshots finalized above height and moves the head
// back to the snapshot finalized at height. It is an offline operation and
// must not run concurrently with Store.
// Expected errors during normal operations:
//   - storage.ErrNotFound if no snapshot was finalized at height
func (s *FinalizedStates) Rollback(height uint64) error {
	var removed []uint64
	err := operation.RetryOnConflict(s.db.Update, func(tx *badger.Txn) error {
		removed = removed[:0]

		var head rollup.HeadSlot
		err := operation.RetrieveFinalizedHead(&head)(tx)
		if err != nil {
			return fmt.Errorf("could not retrieve finalized head: %w", err)
		}
		var target rollup.HeadSlot
		err = operation.RetrieveFinalizedState(height, &target)(tx)
		if err != nil {
			return fmt.Errorf("could not retrieve finalized state at height %d: %w", height, err)
		}

		for h := height + 1; h <= head.Height; h++ {
			err = operation.RemoveFinalizedState(h)(tx)
			if err != nil {
				return fmt.Errorf("could not remove finalized state at height %d: %w", h, err)
			}
			removed = append(removed, h)
		}
		return operation.UpsertFinalizedHead(target)(tx)
	})
	if err != nil {
		return err
	}

	for _, h := range removed {
		s.cache.Remove(h)
	}
	return nil
}
