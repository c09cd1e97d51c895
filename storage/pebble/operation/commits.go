package operation

import (
	"github.com/cockroachdb/pebble"

	"github.com/onflow/rollup-node/model/rollup"
)

// UpsertHeadSlot points the head slot to the given committed height.
func UpsertHeadSlot(slot rollup.HeadSlot) func(pebble.Writer) error {
	return upsert(makePrefix(codeHeadSlot), slot)
}

// RetrieveHeadSlot retrieves the head slot.
// Expected errors during normal operations:
//   - storage.ErrNotFound if no height was committed yet
func RetrieveHeadSlot(slot *rollup.HeadSlot) func(pebble.Reader) error {
	return retrieve(makePrefix(codeHeadSlot), slot)
}

// InsertCommit records the committed block and root at the given height.
func InsertCommit(slot rollup.HeadSlot) func(pebble.Writer) error {
	return upsert(makePrefix(codeCommitByHeight, slot.Height), slot)
}

// RetrieveCommit retrieves the commit record at the given height.
// Expected errors during normal operations:
//   - storage.ErrNotFound if the height was not committed
func RetrieveCommit(height uint64, slot *rollup.HeadSlot) func(pebble.Reader) error {
	return retrieve(makePrefix(codeCommitByHeight, height), slot)
}

// RemoveCommit removes the commit record at the given height.
func RemoveCommit(height uint64) func(pebble.Writer) error {
	return remove(makePrefix(codeCommitByHeight, height))
}
