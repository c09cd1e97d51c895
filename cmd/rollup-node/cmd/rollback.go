package cmd

import (
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/onflow/rollup-node/config"
	"github.com/onflow/rollup-node/module/metrics"
	badgerstorage "github.com/onflow/rollup-node/storage/badger"
	pebblestorage "github.com/onflow/rollup-node/storage/pebble"
)

var (
	flagRollbackDataDir string
	flagRollbackHeight  uint64
)

func init() {
	rollbackCmd.Flags().StringVar(&flagRollbackDataDir, "datadir", "/data/rollup",
		"directory of the node databases")
	rollbackCmd.Flags().Uint64Var(&flagRollbackHeight, "height", 0,
		"the height to roll back to, commits above it are removed")
	_ = rollbackCmd.MarkFlagRequired("height")
}

// rollbackCmd moves the ledger and the finalized states of a stopped node back
// to a committed height, so that the blocks above it are executed again on the
// next start.
var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Roll the ledger and the finalized states of a stopped node back to a height",
	RunE: func(cmd *cobra.Command, _ []string) error {
		log := zerolog.New(os.Stderr).With().Timestamp().Logger()

		log.Info().
			Str("datadir", flagRollbackDataDir).
			Uint64("height", flagRollbackHeight).
			Msg("flags")

		return rollback(log, flagRollbackDataDir, flagRollbackHeight)
	},
}

// rollback removes the ledger commits first. A failure after that point leaves
// the finalized states ahead of the ledger until a rollback to the same height
// is run again.
func rollback(log zerolog.Logger, dataDir string, height uint64) error {
	cfg := config.Config{DataDir: dataDir}

	ledgerDB, err := pebblestorage.OpenDefaultPebbleDB(cfg.LedgerDir())
	if err != nil {
		return fmt.Errorf("could not open ledger database: %w", err)
	}
	defer ledgerDB.Close()

	ledger, err := pebblestorage.NewLedger(log, ledgerDB, metrics.NewNoopCollector())
	if err != nil {
		return err
	}
	err = ledger.Rollback(height)
	if err != nil {
		return fmt.Errorf("could not roll back ledger: %w", err)
	}

	statesDB, err := badger.Open(badger.DefaultOptions(cfg.StatesDir()).WithLogger(nil))
	if err != nil {
		return fmt.Errorf("could not open finalized state database: %w", err)
	}
	defer statesDB.Close()

	states := badgerstorage.NewFinalizedStates(metrics.NewNoopCollector(), statesDB, 1)
	err = states.Rollback(height)
	if err != nil {
		return fmt.Errorf("could not roll back finalized states: %w", err)
	}

	log.Info().Uint64("height", height).Msg("rolled back")
	return nil
}
