package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/onflow/rollup-node/da"
	"github.com/onflow/rollup-node/engine/execution/stf"
	"github.com/onflow/rollup-node/model/rollup"
	"github.com/onflow/rollup-node/storage"
)

// Bootstrap returns the head slot block processing resumes from. On an empty
// ledger the genesis state is computed on top of the last finalized DA header
// and recorded as the first commit.
// No errors are expected during normal operations.
func Bootstrap(
	ctx context.Context,
	log zerolog.Logger,
	service da.Service,
	transition stf.StateTransition,
	ledger storage.Ledger,
	genesisParams []byte,
) (rollup.HeadSlot, error) {
	log = log.With().Str("component", "bootstrap").Logger()

	head, err := ledger.HeadSlot()
	if err == nil {
		log.Info().
			Uint64("height", head.Height).
			Hex("block_id", head.BlockID[:]).
			Hex("root", head.Root[:]).
			Msg("resuming from head slot")
		return head, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return rollup.HeadSlot{}, fmt.Errorf("could not read head slot: %w", err)
	}

	header, err := service.LastFinalizedBlockHeader(ctx)
	if err != nil {
		return rollup.HeadSlot{}, fmt.Errorf("could not get genesis header from DA: %w", err)
	}

	root, err := transition.InitChain(genesisParams)
	if err != nil {
		return rollup.HeadSlot{}, fmt.Errorf("could not init chain: %w: %w", ErrSTFExecution, err)
	}

	genesis := rollup.HeadSlot{
		Height:  header.Height,
		BlockID: header.ID(),
		Root:    root,
	}
	err = ledger.RecordCommit(genesis.Height, genesis.BlockID, genesis.Root)
	if err != nil {
		return rollup.HeadSlot{}, fmt.Errorf("could not record genesis: %w", err)
	}

	log.Info().
		Uint64("height", genesis.Height).
		Hex("block_id", genesis.BlockID[:]).
		Hex("root", genesis.Root[:]).
		Msg("genesis state initialized")

	return genesis, nil
}
