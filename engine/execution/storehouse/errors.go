package storehouse

import (
	"errors"
)

var (
	// ErrMissingParent is returned when a snapshot is created on top of an
	// unknown or pruned parent.
	ErrMissingParent = errors.New("parent snapshot is not known")

	// ErrNonConsecutiveHeight is returned when a snapshot is not exactly one
	// height above its parent.
	ErrNonConsecutiveHeight = errors.New("snapshot height is not the successor of its parent")

	// ErrSnapshotExists is returned when a snapshot with the same id was already created.
	ErrSnapshotExists = errors.New("snapshot already exists")

	// ErrUnknownSnapshot is returned when a snapshot is not in the forest.
	ErrUnknownSnapshot = errors.New("snapshot is not known")

	// ErrCannotDiscardFinalized is returned when discarding a finalized snapshot.
	ErrCannotDiscardFinalized = errors.New("finalized snapshot cannot be discarded")

	// ErrOutOfOrderCommit is returned when committing a snapshot that is not a
	// child of the finalized head.
	ErrOutOfOrderCommit = errors.New("snapshot is not the next committable snapshot")

	// ErrRootMismatch is returned when the finalized-state database already
	// holds a different root for the committed height.
	ErrRootMismatch = errors.New("committed root differs from the persisted root")
)
