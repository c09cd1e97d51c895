package cmd

import (
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/rollup-node/module/metrics"
	"github.com/onflow/rollup-node/storage"
	pebblestorage "github.com/onflow/rollup-node/storage/pebble"
	"github.com/onflow/rollup-node/utils/unittest"
)

func TestRollbackReexecutesRemovedHeights(t *testing.T) {
	unittest.RunWithTempDir(t, func(dir string) {
		blobs := [][]byte{{0x01}, {0x02}, {0x03}, {0x04}}
		cfg := testConfig(dir, writeBlobFile(t, dir, blobs...), len(blobs))

		_, committed := runNode(t, cfg)
		require.Equal(t, uint64(4), committed)

		require.NoError(t, rollback(unittest.Logger(), cfg.DataDir, 1))

		withLedger(t, cfg.LedgerDir(), func(ledger *pebblestorage.Ledger) {
			head, err := ledger.HeadSlot()
			require.NoError(t, err)
			assert.Equal(t, uint64(1), head.Height)
			assert.Equal(t, expectedRoot(t, blobs[0]), head.Root)

			_, err = ledger.CommitAtHeight(2)
			require.ErrorIs(t, err, storage.ErrNotFound)
		})

		root, committed := runNode(t, cfg)
		assert.Equal(t, uint64(4), committed)
		assert.Equal(t, expectedRoot(t, blobs...), root)
	})
}

func TestRollbackRejectsUnknownHeight(t *testing.T) {
	unittest.RunWithTempDir(t, func(dir string) {
		blobs := [][]byte{{0x01}, {0x02}}
		cfg := testConfig(dir, writeBlobFile(t, dir, blobs...), len(blobs))

		_, committed := runNode(t, cfg)
		require.Equal(t, uint64(2), committed)

		err := rollback(unittest.Logger(), cfg.DataDir, 5)
		require.ErrorIs(t, err, storage.ErrNotFound)

		// nothing was removed
		root, committed := runNode(t, cfg)
		assert.Equal(t, uint64(2), committed)
		assert.Equal(t, expectedRoot(t, blobs...), root)
	})
}

func withLedger(t *testing.T, dir string, f func(*pebblestorage.Ledger)) {
	db, err := pebblestorage.OpenDefaultPebbleDB(dir)
	require.NoError(t, err)
	defer func(db *pebble.DB) {
		require.NoError(t, db.Close())
	}(db)

	ledger, err := pebblestorage.NewLedger(unittest.Logger(), db, metrics.NewNoopCollector())
	require.NoError(t, err)
	f(ledger)
}
