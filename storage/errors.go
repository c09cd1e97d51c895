package storage

import (
	"errors"
)

var (
	// Note: there is another not found error: pebble.ErrNotFound (and badger.ErrKeyNotFound).
	// The difference is that those are returned by the database API, while
	// modules in storage/pebble and storage/badger return storage.ErrNotFound.
	ErrNotFound = errors.New("key not found")

	ErrAlreadyExists = errors.New("key already exists")
	ErrDataMismatch  = errors.New("data for key is different")

	// ErrNotBootstrapped is returned when the database holds no head slot yet.
	ErrNotBootstrapped = errors.New("database not bootstrapped")

	// ErrNonSequentialCommit is returned when a commit would leave a gap in,
	// or go back on, the sequence of committed heights.
	ErrNonSequentialCommit = errors.New("commit height is not the successor of the head slot")
)
