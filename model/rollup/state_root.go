package rollup

import (
	"encoding/hex"
	"fmt"
)

// StateRootLen is the length of a state root in bytes.
const StateRootLen = 32

// StateRoot is the commitment to the full execution state after applying a block.
type StateRoot [StateRootLen]byte

// EmptyStateRoot is the root of a state that has not been initialized.
var EmptyStateRoot = StateRoot{}

func (r StateRoot) String() string {
	return hex.EncodeToString(r[:])
}

// IsEmpty returns true if the root is the zero value.
func (r StateRoot) IsEmpty() bool {
	return r == EmptyStateRoot
}

// ToStateRoot converts a byte slice into a state root.
// It returns an error if the slice has an invalid length.
func ToStateRoot(commitBytes []byte) (StateRoot, error) {
	var root StateRoot
	if len(commitBytes) != StateRootLen {
		return root, fmt.Errorf("expecting %d bytes but got %d bytes", StateRootLen, len(commitBytes))
	}
	copy(root[:], commitBytes)
	return root, nil
}
