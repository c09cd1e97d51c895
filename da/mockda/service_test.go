package mockda

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/rollup-node/da"
	"github.com/onflow/rollup-node/model/rollup"
	"github.com/onflow/rollup-node/utils/unittest"
)

func TestSendBlobProducesLinkedBlocks(t *testing.T) {
	ctx := context.Background()
	s := New(unittest.SequencerAddress, 0)

	genesis, err := s.BlockAt(ctx, 0)
	require.NoError(t, err)
	assert.False(t, genesis.Header.HasParent())

	require.Equal(t, uint64(1), s.SendBlob([]byte{1}))
	require.Equal(t, uint64(2), s.SendBlob([]byte{2}))

	first, err := s.BlockAt(ctx, 1)
	require.NoError(t, err)
	second, err := s.BlockAt(ctx, 2)
	require.NoError(t, err)

	require.True(t, second.Header.HasParent())
	assert.Equal(t, first.ID(), *second.Header.ParentID)
	assert.Equal(t, []byte{2}, second.Blobs[0].Data)
	assert.Equal(t, unittest.SequencerAddress, second.Blobs[0].Sender)

	_, err = s.BlockAt(ctx, 3)
	require.ErrorIs(t, err, da.ErrBlockPending)
}

func TestFinalityDepth(t *testing.T) {
	ctx := context.Background()
	s := New(unittest.SequencerAddress, 2)

	for i := 1; i <= 3; i++ {
		s.SendBlob([]byte{byte(i)})
	}

	finalized, err := s.LastFinalizedHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), finalized)

	header, err := s.LastFinalizedBlockHeader(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), header.Height)

	shallow := New(unittest.SequencerAddress, 10)
	shallow.SendBlob([]byte{1})
	finalized, err = shallow.LastFinalizedHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), finalized)
}

func TestPlannedFork(t *testing.T) {
	ctx := context.Background()
	s := New(unittest.SequencerAddress, 4)
	for i := 1; i <= 4; i++ {
		s.SendBlob([]byte{byte(i), byte(i), byte(i), byte(i)})
	}

	before := make(map[uint64]rollup.Identifier)
	for h := uint64(0); h <= 4; h++ {
		b, err := s.BlockAt(ctx, h)
		require.NoError(t, err)
		before[h] = b.ID()
	}

	err := s.SetPlannedFork(PlannedFork{
		TriggerHeight: 5,
		ForkHeight:    2,
		Blobs:         [][]byte{{13, 13, 13, 13}, {14, 14, 14, 14}, {15, 15, 15, 15}},
	})
	require.NoError(t, err)

	// heights below the trigger are unchanged until it is requested
	b, err := s.BlockAt(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, before[4], b.ID())

	tip, err := s.BlockAt(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte{15, 15, 15, 15}, tip.Blobs[0].Data)

	for h := uint64(0); h <= 2; h++ {
		b, err := s.BlockAt(ctx, h)
		require.NoError(t, err)
		assert.Equal(t, before[h], b.ID(), "height %d below the fork must not change", h)
	}
	for h := uint64(3); h <= 4; h++ {
		b, err := s.BlockAt(ctx, h)
		require.NoError(t, err)
		assert.NotEqual(t, before[h], b.ID(), "height %d above the fork must change", h)
	}

	forked, err := s.BlockAt(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, before[2], *forked.Header.ParentID)
}

func TestPlannedFork_TriggeredBelowForkHeight(t *testing.T) {
	ctx := context.Background()
	s := New(unittest.SequencerAddress, 0)
	s.SendBlob([]byte{1})

	err := s.SetPlannedFork(PlannedFork{
		TriggerHeight: 4,
		ForkHeight:    3,
		Blobs:         [][]byte{{9}},
	})
	require.NoError(t, err)

	var block *rollup.Block
	require.NotPanics(t, func() {
		block, err = s.BlockAt(ctx, 4)
	})
	require.ErrorIs(t, err, ErrForkAboveHead)
	assert.Nil(t, block)

	// the fork is applied once the chain reaches the fork height
	s.SendBlob([]byte{2})
	s.SendBlob([]byte{3})
	block, err = s.BlockAt(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{9}, block.Blobs[0].Data)
}

func TestPlannedFork_Validation(t *testing.T) {
	s := New(unittest.SequencerAddress, 0)

	err := s.SetPlannedFork(PlannedFork{TriggerHeight: 2, ForkHeight: 2, Blobs: [][]byte{{1}}})
	require.Error(t, err)

	err = s.SetPlannedFork(PlannedFork{TriggerHeight: 5, ForkHeight: 1, Blobs: [][]byte{{1}}})
	require.Error(t, err)
}

func TestWithoutParentLinks(t *testing.T) {
	s := New(unittest.SequencerAddress, 0, WithoutParentLinks())
	s.SendBlob([]byte{1})

	b, err := s.BlockAt(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, b.Header.HasParent())
}

func TestWithWaitAttempts(t *testing.T) {
	ctx := context.Background()
	s := New(unittest.SequencerAddress, 0, WithWaitAttempts(2))
	s.SendBlob([]byte{1})

	for i := 0; i < 2; i++ {
		_, err := s.BlockAt(ctx, 1)
		require.ErrorIs(t, err, da.ErrBlockPending)
	}
	b, err := s.BlockAt(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), b.Height())
}
