package pebble

import (
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/rollup-node/model/rollup"
	"github.com/onflow/rollup-node/module/metrics"
	"github.com/onflow/rollup-node/storage"
	"github.com/onflow/rollup-node/utils/unittest"
)

func TestLedger_Empty(t *testing.T) {
	unittest.RunWithPebbleDB(t, func(db *pebble.DB) {
		ledger, err := NewLedger(unittest.Logger(), db, metrics.NewNoopCollector())
		require.NoError(t, err)

		_, err = ledger.HeadSlot()
		require.ErrorIs(t, err, storage.ErrNotFound)

		_, err = ledger.CommitAtHeight(0)
		require.ErrorIs(t, err, storage.ErrNotFound)

		assert.Equal(t, uint64(0), ledger.CommittedHeight())
	})
}

func TestLedger_RecordCommit(t *testing.T) {
	unittest.RunWithPebbleDB(t, func(db *pebble.DB) {
		ledger, err := NewLedger(unittest.Logger(), db, metrics.NewNoopCollector())
		require.NoError(t, err)

		genesis := unittest.HeadSlotFixture(0)
		require.NoError(t, ledger.RecordCommit(genesis.Height, genesis.BlockID, genesis.Root))

		first := unittest.HeadSlotFixture(1)
		require.NoError(t, ledger.RecordCommit(first.Height, first.BlockID, first.Root))

		head, err := ledger.HeadSlot()
		require.NoError(t, err)
		assert.Equal(t, first, head)
		assert.Equal(t, uint64(1), ledger.CommittedHeight())

		recorded, err := ledger.CommitAtHeight(0)
		require.NoError(t, err)
		assert.Equal(t, genesis, recorded)

		root, err := ledger.RootAtHeight(1)
		require.NoError(t, err)
		assert.Equal(t, first.Root, root)
	})
}

func TestLedger_BootstrapAtAnyHeight(t *testing.T) {
	unittest.RunWithPebbleDB(t, func(db *pebble.DB) {
		ledger, err := NewLedger(unittest.Logger(), db, metrics.NewNoopCollector())
		require.NoError(t, err)

		slot := unittest.HeadSlotFixture(100)
		require.NoError(t, ledger.RecordCommit(slot.Height, slot.BlockID, slot.Root))

		// below the first recorded height
		below := unittest.HeadSlotFixture(99)
		err = ledger.RecordCommit(below.Height, below.BlockID, below.Root)
		require.ErrorIs(t, err, storage.ErrNonSequentialCommit)
	})
}

func TestLedger_Idempotent(t *testing.T) {
	unittest.RunWithPebbleDB(t, func(db *pebble.DB) {
		ledger, err := NewLedger(unittest.Logger(), db, metrics.NewNoopCollector())
		require.NoError(t, err)

		genesis := unittest.HeadSlotFixture(0)
		second := unittest.HeadSlotFixture(1)
		require.NoError(t, ledger.RecordCommit(genesis.Height, genesis.BlockID, genesis.Root))
		require.NoError(t, ledger.RecordCommit(second.Height, second.BlockID, second.Root))

		t.Run("same data is a no-op", func(t *testing.T) {
			require.NoError(t, ledger.RecordCommit(genesis.Height, genesis.BlockID, genesis.Root))
			require.NoError(t, ledger.RecordCommit(second.Height, second.BlockID, second.Root))

			head, err := ledger.HeadSlot()
			require.NoError(t, err)
			assert.Equal(t, second, head)
		})

		t.Run("different root is rejected", func(t *testing.T) {
			err := ledger.RecordCommit(second.Height, second.BlockID, unittest.StateRootFixture())
			require.ErrorIs(t, err, storage.ErrDataMismatch)
		})

		t.Run("different block is rejected", func(t *testing.T) {
			err := ledger.RecordCommit(genesis.Height, unittest.IdentifierFixture(), genesis.Root)
			require.ErrorIs(t, err, storage.ErrDataMismatch)
		})
	})
}

func TestLedger_RejectsGaps(t *testing.T) {
	unittest.RunWithPebbleDB(t, func(db *pebble.DB) {
		ledger, err := NewLedger(unittest.Logger(), db, metrics.NewNoopCollector())
		require.NoError(t, err)

		genesis := unittest.HeadSlotFixture(0)
		require.NoError(t, ledger.RecordCommit(genesis.Height, genesis.BlockID, genesis.Root))

		skipped := unittest.HeadSlotFixture(2)
		err = ledger.RecordCommit(skipped.Height, skipped.BlockID, skipped.Root)
		require.ErrorIs(t, err, storage.ErrNonSequentialCommit)

		head, err := ledger.HeadSlot()
		require.NoError(t, err)
		assert.Equal(t, genesis, head)
	})
}

func TestLedger_Reopen(t *testing.T) {
	unittest.RunWithTempDir(t, func(dir string) {
		db, err := OpenDefaultPebbleDB(dir)
		require.NoError(t, err)

		ledger, err := NewLedger(unittest.Logger(), db, metrics.NewNoopCollector())
		require.NoError(t, err)

		for height := uint64(0); height < 5; height++ {
			slot := unittest.HeadSlotFixture(height)
			require.NoError(t, ledger.RecordCommit(slot.Height, slot.BlockID, slot.Root))
		}
		head, err := ledger.HeadSlot()
		require.NoError(t, err)
		require.NoError(t, db.Close())

		db, err = OpenDefaultPebbleDB(dir)
		require.NoError(t, err)
		defer db.Close()

		reopened, err := NewLedger(unittest.Logger(), db, metrics.NewNoopCollector())
		require.NoError(t, err)

		loaded, err := reopened.HeadSlot()
		require.NoError(t, err)
		assert.Equal(t, head, loaded)
		assert.Equal(t, uint64(4), reopened.CommittedHeight())

		next := unittest.HeadSlotFixture(5)
		require.NoError(t, reopened.RecordCommit(next.Height, next.BlockID, next.Root))
	})
}

func TestLedger_Rollback(t *testing.T) {
	unittest.RunWithPebbleDB(t, func(db *pebble.DB) {
		ledger, err := NewLedger(unittest.Logger(), db, metrics.NewNoopCollector())
		require.NoError(t, err)

		err = ledger.Rollback(0)
		require.ErrorIs(t, err, storage.ErrNotFound)

		slots := make([]rollup.HeadSlot, 0, 5)
		for height := uint64(10); height < 15; height++ {
			slot := unittest.HeadSlotFixture(height)
			require.NoError(t, ledger.RecordCommit(slot.Height, slot.BlockID, slot.Root))
			slots = append(slots, slot)
		}

		t.Run("above head slot", func(t *testing.T) {
			err := ledger.Rollback(15)
			require.ErrorIs(t, err, storage.ErrNotFound)
		})

		t.Run("below first recorded height", func(t *testing.T) {
			err := ledger.Rollback(9)
			require.ErrorIs(t, err, storage.ErrNotFound)

			head, err := ledger.HeadSlot()
			require.NoError(t, err)
			assert.Equal(t, slots[4], head)
		})

		t.Run("to head slot is a no-op", func(t *testing.T) {
			require.NoError(t, ledger.Rollback(14))
			assert.Equal(t, uint64(14), ledger.CommittedHeight())
		})

		t.Run("removes commits above height", func(t *testing.T) {
			require.NoError(t, ledger.Rollback(11))

			head, err := ledger.HeadSlot()
			require.NoError(t, err)
			assert.Equal(t, slots[1], head)
			assert.Equal(t, uint64(11), ledger.CommittedHeight())

			for height := uint64(12); height < 15; height++ {
				_, err := ledger.CommitAtHeight(height)
				require.ErrorIs(t, err, storage.ErrNotFound)
			}
			recorded, err := ledger.CommitAtHeight(10)
			require.NoError(t, err)
			assert.Equal(t, slots[0], recorded)
		})

		t.Run("removed heights can be recorded again", func(t *testing.T) {
			replacement := unittest.HeadSlotFixture(12)
			require.NoError(t, ledger.RecordCommit(replacement.Height, replacement.BlockID, replacement.Root))

			head, err := ledger.HeadSlot()
			require.NoError(t, err)
			assert.Equal(t, replacement, head)
		})
	})
}

func TestLedger_RollbackIsDurable(t *testing.T) {
	unittest.RunWithTempDir(t, func(dir string) {
		db, err := OpenDefaultPebbleDB(dir)
		require.NoError(t, err)

		ledger, err := NewLedger(unittest.Logger(), db, metrics.NewNoopCollector())
		require.NoError(t, err)

		var target rollup.HeadSlot
		for height := uint64(0); height < 5; height++ {
			slot := unittest.HeadSlotFixture(height)
			require.NoError(t, ledger.RecordCommit(slot.Height, slot.BlockID, slot.Root))
			if height == 2 {
				target = slot
			}
		}
		require.NoError(t, ledger.Rollback(2))
		require.NoError(t, db.Close())

		db, err = OpenDefaultPebbleDB(dir)
		require.NoError(t, err)
		defer db.Close()

		reopened, err := NewLedger(unittest.Logger(), db, metrics.NewNoopCollector())
		require.NoError(t, err)

		head, err := reopened.HeadSlot()
		require.NoError(t, err)
		assert.Equal(t, target, head)
		assert.Equal(t, uint64(2), reopened.CommittedHeight())
	})
}
