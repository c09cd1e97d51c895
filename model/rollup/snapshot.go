package rollup

import (
	"fmt"
)

// SnapshotStatus is the lifecycle stage of a state snapshot.
type SnapshotStatus int

const (
	SnapshotPending SnapshotStatus = iota
	SnapshotFinalized
)

func (s SnapshotStatus) String() string {
	switch s {
	case SnapshotPending:
		return "pending"
	case SnapshotFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// SnapshotID is the key of a snapshot in the snapshot forest.
// Two blocks at the same height on different forks have different keys.
type SnapshotID struct {
	Height  uint64
	BlockID Identifier
}

func (id SnapshotID) String() string {
	return fmt.Sprintf("%d/%s", id.Height, id.BlockID.TerminalString())
}

// Snapshot is the execution state derived by applying the block BlockID on
// top of the state of its parent snapshot.
type Snapshot struct {
	ID     SnapshotID
	Parent SnapshotID
	Root   StateRoot
	Status SnapshotStatus
}

// IsFinalized returns true if the snapshot has been committed.
func (s *Snapshot) IsFinalized() bool {
	return s.Status == SnapshotFinalized
}

// HeadSlot marks the last finalized point. It is the source of truth for
// resuming block processing after a restart.
type HeadSlot struct {
	Height  uint64
	BlockID Identifier
	Root    StateRoot
}

// SnapshotID returns the key of the snapshot this head slot points to.
func (h HeadSlot) SnapshotID() SnapshotID {
	return SnapshotID{Height: h.Height, BlockID: h.BlockID}
}

func (h HeadSlot) String() string {
	return fmt.Sprintf("height=%d block=%s root=%s", h.Height, h.BlockID, h.Root)
}

// CommitNotification is broadcast once for every committed height.
type CommitNotification struct {
	Height uint64
	Root   StateRoot
}
