package storehouse

import (
	"github.com/onflow/rollup-node/model/rollup"
)

// forest holds the finalized head and every pending snapshot descending from it.
// It is not concurrency safe, the Manager guards it.
type forest struct {
	snapshots   map[rollup.SnapshotID]*rollup.Snapshot
	idsByHeight map[uint64]map[rollup.SnapshotID]struct{} // for pruning
}

func newForest(head *rollup.Snapshot) *forest {
	f := &forest{
		snapshots:   make(map[rollup.SnapshotID]*rollup.Snapshot),
		idsByHeight: make(map[uint64]map[rollup.SnapshotID]struct{}),
	}
	f.add(head)
	return f
}

func (f *forest) get(id rollup.SnapshotID) (*rollup.Snapshot, bool) {
	s, ok := f.snapshots[id]
	return s, ok
}

func (f *forest) add(s *rollup.Snapshot) {
	f.snapshots[s.ID] = s

	sameHeight, ok := f.idsByHeight[s.ID.Height]
	if !ok {
		sameHeight = make(map[rollup.SnapshotID]struct{})
		f.idsByHeight[s.ID.Height] = sameHeight
	}
	sameHeight[s.ID] = struct{}{}
}

func (f *forest) remove(id rollup.SnapshotID) {
	delete(f.snapshots, id)

	sameHeight := f.idsByHeight[id.Height]
	delete(sameHeight, id)
	if len(sameHeight) == 0 {
		delete(f.idsByHeight, id.Height)
	}
}

// pruneFork removes the snapshot and all its descendants, returning the number
// of removed snapshots.
func (f *forest) pruneFork(id rollup.SnapshotID) int {
	f.remove(id)
	removed := 1

	// all children must be at height + 1, whose parent is id
	for child := range f.idsByHeight[id.Height+1] {
		if f.snapshots[child].Parent == id {
			removed += f.pruneFork(child)
		}
	}
	return removed
}

// pruneSiblings removes every fork at the snapshot's height other than the
// snapshot itself.
func (f *forest) pruneSiblings(id rollup.SnapshotID) int {
	removed := 0
	for sibling := range f.idsByHeight[id.Height] {
		if sibling != id {
			removed += f.pruneFork(sibling)
		}
	}
	return removed
}

func (f *forest) size() int {
	return len(f.snapshots)
}
