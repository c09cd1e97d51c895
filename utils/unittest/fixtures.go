package unittest

import (
	crand "crypto/rand"

	"github.com/onflow/rollup-node/model/rollup"
)

// SequencerAddress is the sender used by blob fixtures.
var SequencerAddress = rollup.Address{11}

func IdentifierFixture() rollup.Identifier {
	var id rollup.Identifier
	_, _ = crand.Read(id[:])
	return id
}

func StateRootFixture() rollup.StateRoot {
	var root rollup.StateRoot
	_, _ = crand.Read(root[:])
	return root
}

func BlobFixture(data []byte, sequence uint64) rollup.Blob {
	return rollup.Blob{
		Sender:   SequencerAddress,
		Sequence: sequence,
		Data:     data,
	}
}

func HeadSlotFixture(height uint64) rollup.HeadSlot {
	return rollup.HeadSlot{
		Height:  height,
		BlockID: IdentifierFixture(),
		Root:    StateRootFixture(),
	}
}

// BlockFixture returns a block at the given height linked to parent.
func BlockFixture(height uint64, parent rollup.Identifier, blobs ...rollup.Blob) *rollup.Block {
	return rollup.NewBlock(height, &parent, height, blobs, nil)
}

// ChainFixtureFrom returns count blocks linked on top of the given parent block id at the given height.
func ChainFixtureFrom(count int, parentHeight uint64, parent rollup.Identifier) []*rollup.Block {
	blocks := make([]*rollup.Block, 0, count)
	for i := 0; i < count; i++ {
		height := parentHeight + uint64(i) + 1
		block := BlockFixture(height, parent, BlobFixture([]byte{byte(height)}, height))
		blocks = append(blocks, block)
		parent = block.ID()
	}
	return blocks
}
