package operation

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/onflow/rollup-node/model/rollup"
)

// InsertFinalizedState persists the root of the snapshot finalized at slot.Height.
// Expected errors during normal operations:
//   - storage.ErrAlreadyExists if a snapshot was already finalized at the height
func InsertFinalizedState(slot rollup.HeadSlot) func(*badger.Txn) error {
	return insert(makePrefix(codeFinalizedByHeight, slot.Height), slot)
}

// RetrieveFinalizedState retrieves the snapshot finalized at the given height.
// Expected errors during normal operations:
//   - storage.ErrNotFound if no snapshot was finalized at the height
func RetrieveFinalizedState(height uint64, slot *rollup.HeadSlot) func(*badger.Txn) error {
	return retrieve(makePrefix(codeFinalizedByHeight, height), slot)
}

// RemoveFinalizedState removes the snapshot finalized at the given height.
func RemoveFinalizedState(height uint64) func(*badger.Txn) error {
	return remove(makePrefix(codeFinalizedByHeight, height))
}

// UpsertFinalizedHead points the finalized head to slot.
func UpsertFinalizedHead(slot rollup.HeadSlot) func(*badger.Txn) error {
	return upsert(makePrefix(codeFinalizedHead), slot)
}

// RetrieveFinalizedHead retrieves the highest finalized snapshot.
// Expected errors during normal operations:
//   - storage.ErrNotFound if nothing was finalized yet
func RetrieveFinalizedHead(slot *rollup.HeadSlot) func(*badger.Txn) error {
	return retrieve(makePrefix(codeFinalizedHead), slot)
}
