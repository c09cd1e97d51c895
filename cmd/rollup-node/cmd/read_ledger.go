package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/onflow/rollup-node/model/rollup"
	"github.com/onflow/rollup-node/module/metrics"
	pebblestorage "github.com/onflow/rollup-node/storage/pebble"
)

var (
	flagDataDir string
	flagHeight  uint64
)

func init() {
	readLedgerCmd.Flags().StringVar(&flagDataDir, "datadir", "/data/rollup",
		"directory of the node databases")
	readLedgerCmd.Flags().Uint64Var(&flagHeight, "height", 0,
		"committed height to read, the head slot is read when not set")
}

var readLedgerCmd = &cobra.Command{
	Use:   "read-ledger",
	Short: "Print the head slot or the commit at a height from the ledger",
	RunE: func(cmd *cobra.Command, _ []string) error {
		log := zerolog.New(os.Stderr).With().Timestamp().Logger()

		db, err := pebblestorage.OpenDefaultPebbleDB(filepath.Join(flagDataDir, "ledger"))
		if err != nil {
			return fmt.Errorf("could not open ledger database: %w", err)
		}
		defer db.Close()

		ledger, err := pebblestorage.NewLedger(log, db, metrics.NewNoopCollector())
		if err != nil {
			return err
		}

		var slot rollup.HeadSlot
		if cmd.Flags().Changed("height") {
			slot, err = ledger.CommitAtHeight(flagHeight)
		} else {
			slot, err = ledger.HeadSlot()
		}
		if err != nil {
			return fmt.Errorf("could not read ledger: %w", err)
		}

		log.Info().
			Uint64("height", slot.Height).
			Hex("block_id", slot.BlockID[:]).
			Hex("root", slot.Root[:]).
			Uint64("committed_height", ledger.CommittedHeight()).
			Msg("ledger commit")
		return nil
	},
}
