package operation

import (
	"encoding/binary"
)

const (
	// codes for special database markers
	codeHeadSlot byte = 1 // the last committed height, block and root

	// codes for records indexed by height
	codeCommitByHeight byte = 10
)

func makePrefix(code byte, keys ...uint64) []byte {
	prefix := make([]byte, 1, 1+8*len(keys))
	prefix[0] = code
	for _, key := range keys {
		// big endian keeps records sorted by height during iteration
		prefix = binary.BigEndian.AppendUint64(prefix, key)
	}
	return prefix
}
