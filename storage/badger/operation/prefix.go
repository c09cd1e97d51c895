package operation

import (
	"encoding/binary"
)

const (
	// special database markers
	codeFinalizedHead byte = 1 // highest finalized snapshot

	// finalized snapshots indexed by height
	codeFinalizedByHeight byte = 20
)

func makePrefix(code byte, keys ...uint64) []byte {
	prefix := make([]byte, 1, 1+8*len(keys))
	prefix[0] = code
	for _, key := range keys {
		prefix = binary.BigEndian.AppendUint64(prefix, key)
	}
	return prefix
}
