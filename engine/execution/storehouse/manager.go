package storehouse

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v2"
	"github.com/rs/zerolog"

	"github.com/onflow/rollup-node/model/rollup"
	"github.com/onflow/rollup-node/module"
	"github.com/onflow/rollup-node/storage"
	badgerstorage "github.com/onflow/rollup-node/storage/badger"
)

// Manager owns the forest of state snapshots derived from DA blocks that are
// not finalized yet, and persists the roots of finalized snapshots.
//
// The forest is rooted at the finalized head. The canonical chain is the path
// from the finalized head to the tip, indexed by height in the chain index.
type Manager struct {
	sync.RWMutex
	log       zerolog.Logger
	db        *badger.DB
	finalized storage.FinalizedStates

	forest     *forest
	chainIndex map[uint64]rollup.Identifier // canonical block id by height, from head to tip
	head       rollup.HeadSlot
	tip        rollup.SnapshotID
}

// NewManager creates a Manager whose forest is rooted at head. head is
// persisted as finalized, so a fresh database is bootstrapped with it.
// Expected errors during normal operations:
//   - ErrRootMismatch if the database has a different root finalized at head.Height
func NewManager(
	log zerolog.Logger,
	collector module.CacheMetrics,
	db *badger.DB,
	head rollup.HeadSlot,
	cacheSize uint,
) (*Manager, error) {
	finalized := badgerstorage.NewFinalizedStates(collector, db, cacheSize)

	err := finalized.Store(head)
	if errors.Is(err, storage.ErrDataMismatch) {
		return nil, fmt.Errorf("head slot %v conflicts with finalized state: %v: %w", head, err, ErrRootMismatch)
	}
	if err != nil {
		return nil, fmt.Errorf("could not store head slot: %w", err)
	}

	root := &rollup.Snapshot{
		ID:     head.SnapshotID(),
		Root:   head.Root,
		Status: rollup.SnapshotFinalized,
	}

	m := &Manager{
		log:        log.With().Str("component", "storehouse").Logger(),
		db:         db,
		finalized:  finalized,
		forest:     newForest(root),
		chainIndex: map[uint64]rollup.Identifier{head.Height: head.BlockID},
		head:       head,
		tip:        root.ID,
	}

	m.log.Info().
		Uint64("height", head.Height).
		Hex("block_id", head.BlockID[:]).
		Hex("root", head.Root[:]).
		Msg("storage manager initialized")

	return m, nil
}

// NewSnapshot records the state derived by executing block blockID on top of
// parent. The snapshot extends the canonical chain if parent is the tip.
// Expected errors during normal operations:
//   - ErrMissingParent if parent is not in the forest
//   - ErrNonConsecutiveHeight if height is not parent.Height+1
//   - ErrSnapshotExists if the snapshot was already created
func (m *Manager) NewSnapshot(parent rollup.SnapshotID, height uint64, blockID rollup.Identifier, root rollup.StateRoot) (*rollup.Snapshot, error) {
	m.Lock()
	defer m.Unlock()

	if _, ok := m.forest.get(parent); !ok {
		return nil, fmt.Errorf("cannot create snapshot at height %d on top of %v: %w", height, parent, ErrMissingParent)
	}
	if height != parent.Height+1 {
		return nil, fmt.Errorf("cannot create snapshot at height %d on top of %v: %w", height, parent, ErrNonConsecutiveHeight)
	}

	id := rollup.SnapshotID{Height: height, BlockID: blockID}
	if _, ok := m.forest.get(id); ok {
		return nil, fmt.Errorf("snapshot %v: %w", id, ErrSnapshotExists)
	}

	snapshot := &rollup.Snapshot{
		ID:     id,
		Parent: parent,
		Root:   root,
		Status: rollup.SnapshotPending,
	}
	m.forest.add(snapshot)

	if parent == m.tip {
		m.chainIndex[height] = blockID
		m.tip = id
	}

	return snapshot, nil
}

// Discard removes the snapshot and all of its descendants. If the snapshot is
// on the canonical chain, the chain is truncated to its parent.
// Expected errors during normal operations:
//   - ErrCannotDiscardFinalized if the snapshot is the finalized head
//   - ErrUnknownSnapshot if the snapshot is not in the forest
func (m *Manager) Discard(id rollup.SnapshotID) error {
	m.Lock()
	defer m.Unlock()

	snapshot, ok := m.forest.get(id)
	if !ok {
		if id.Height <= m.head.Height {
			return fmt.Errorf("cannot discard %v below finalized height %d: %w", id, m.head.Height, ErrCannotDiscardFinalized)
		}
		return fmt.Errorf("cannot discard %v: %w", id, ErrUnknownSnapshot)
	}
	if snapshot.IsFinalized() {
		return fmt.Errorf("cannot discard %v: %w", id, ErrCannotDiscardFinalized)
	}

	if m.chainIndex[id.Height] == id.BlockID {
		m.truncateChain(snapshot.Parent)
	}
	removed := m.forest.pruneFork(id)

	m.log.Debug().
		Uint64("height", id.Height).
		Hex("block_id", id.BlockID[:]).
		Int("removed", removed).
		Msg("snapshot discarded")

	return nil
}

// truncateChain drops chain index entries above the new tip.
func (m *Manager) truncateChain(tip rollup.SnapshotID) {
	for height := tip.Height + 1; height <= m.tip.Height; height++ {
		delete(m.chainIndex, height)
	}
	m.tip = tip
}

// Commit finalizes the snapshot, which must be a child of the finalized head.
// Its root is persisted, the previous head and every competing fork at its
// height are pruned. Committing the finalized head again is a no-op.
// Expected errors during normal operations:
//   - ErrOutOfOrderCommit if the snapshot is not a pending child of the finalized head
//   - ErrRootMismatch if a different root was already persisted at the height
func (m *Manager) Commit(id rollup.SnapshotID) error {
	m.Lock()
	defer m.Unlock()

	if id == m.head.SnapshotID() {
		return nil
	}

	snapshot, ok := m.forest.get(id)
	if !ok {
		return fmt.Errorf("cannot commit unknown snapshot %v: %w", id, ErrOutOfOrderCommit)
	}
	if id.Height != m.head.Height+1 || snapshot.Parent != m.head.SnapshotID() {
		return fmt.Errorf("cannot commit %v on top of finalized head %v: %w", id, m.head.SnapshotID(), ErrOutOfOrderCommit)
	}

	slot := rollup.HeadSlot{Height: id.Height, BlockID: id.BlockID, Root: snapshot.Root}
	err := m.finalized.Store(slot)
	if errors.Is(err, storage.ErrDataMismatch) {
		return fmt.Errorf("cannot commit %v: %v: %w", id, err, ErrRootMismatch)
	}
	if err != nil {
		return fmt.Errorf("could not persist finalized state %v: %w", id, err)
	}

	// competing forks can never become canonical once a height is finalized
	pruned := m.forest.pruneSiblings(id)
	if m.chainIndex[id.Height] != id.BlockID {
		m.chainIndex[id.Height] = id.BlockID
		m.truncateChain(id)
	}

	m.forest.remove(m.head.SnapshotID())
	delete(m.chainIndex, m.head.Height)

	snapshot.Status = rollup.SnapshotFinalized
	m.head = slot

	m.log.Debug().
		Uint64("height", slot.Height).
		Hex("block_id", slot.BlockID[:]).
		Hex("root", slot.Root[:]).
		Int("pruned", pruned).
		Msg("snapshot committed")

	return nil
}

// Snapshot returns the snapshot with the given id.
func (m *Manager) Snapshot(id rollup.SnapshotID) (*rollup.Snapshot, bool) {
	m.RLock()
	defer m.RUnlock()
	s, ok := m.forest.get(id)
	if !ok {
		return nil, false
	}
	snapshot := *s
	return &snapshot, true
}

// BlockIDAt returns the canonical block id at the given height. Only heights
// from the finalized head to the tip are indexed.
func (m *Manager) BlockIDAt(height uint64) (rollup.Identifier, bool) {
	m.RLock()
	defer m.RUnlock()
	id, ok := m.chainIndex[height]
	return id, ok
}

// CanonicalAt returns the canonical snapshot at the given height.
func (m *Manager) CanonicalAt(height uint64) (*rollup.Snapshot, bool) {
	m.RLock()
	defer m.RUnlock()

	blockID, ok := m.chainIndex[height]
	if !ok {
		return nil, false
	}
	s, ok := m.forest.get(rollup.SnapshotID{Height: height, BlockID: blockID})
	if !ok {
		return nil, false
	}
	snapshot := *s
	return &snapshot, true
}

// Tip returns the canonical tip.
func (m *Manager) Tip() rollup.SnapshotID {
	m.RLock()
	defer m.RUnlock()
	return m.tip
}

// Head returns the finalized head.
func (m *Manager) Head() rollup.HeadSlot {
	m.RLock()
	defer m.RUnlock()
	return m.head
}

// PendingCount returns the number of snapshots that are not finalized.
func (m *Manager) PendingCount() int {
	m.RLock()
	defer m.RUnlock()
	return m.forest.size() - 1
}

// CreateFinalizedStorage returns a read view of the finalized states, pinned
// to the current finalized head.
func (m *Manager) CreateFinalizedStorage() *FinalizedStorage {
	m.RLock()
	defer m.RUnlock()
	return newFinalizedStorage(m.finalized, m.head)
}

// Close flushes the finalized-state database.
func (m *Manager) Close() error {
	err := m.db.Sync()
	if err != nil {
		return fmt.Errorf("could not sync finalized states: %w", err)
	}
	return nil
}
