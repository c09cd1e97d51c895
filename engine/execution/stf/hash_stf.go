package stf

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/sha3"

	"github.com/onflow/rollup-node/model/rollup"
)

// HashSTF is a reference state transition: the state is a running SHA3-256
// hash over the genesis parameters and the data of every applied blob.
type HashSTF struct{}

var _ StateTransition = (*HashSTF)(nil)

func NewHashSTF() *HashSTF {
	return &HashSTF{}
}

func (s *HashSTF) InitChain(params []byte) (rollup.StateRoot, error) {
	hasher := sha3.New256()
	writeChunk(hasher, params)
	return rollup.ToStateRoot(hasher.Sum(nil))
}

func (s *HashSTF) Apply(_ context.Context, prior rollup.StateRoot, blobs []rollup.Blob, _ rollup.ValidityCondition) (rollup.StateRoot, error) {
	hasher := sha3.New256()
	_, _ = hasher.Write(prior[:])
	for _, blob := range blobs {
		writeChunk(hasher, blob.Data)
	}
	return rollup.ToStateRoot(hasher.Sum(nil))
}

// writeChunk length-prefixes data so that different blob splits of the same
// bytes produce different roots.
func writeChunk(hasher io.Writer, data []byte) {
	var length [8]byte
	binary.BigEndian.PutUint64(length[:], uint64(len(data)))
	_, _ = hasher.Write(length[:])
	_, _ = hasher.Write(data)
}

// GetResultFromBlocks returns the root obtained by initializing the chain with
// params and applying the blobs of every block in order.
func GetResultFromBlocks(stf StateTransition, params []byte, blocks [][]rollup.Blob) (rollup.StateRoot, error) {
	root, err := stf.InitChain(params)
	if err != nil {
		return rollup.EmptyStateRoot, fmt.Errorf("could not init chain: %w", err)
	}
	for i, blobs := range blocks {
		root, err = stf.Apply(context.Background(), root, blobs, nil)
		if err != nil {
			return rollup.EmptyStateRoot, fmt.Errorf("could not apply block %d: %w", i, err)
		}
	}
	return root, nil
}
