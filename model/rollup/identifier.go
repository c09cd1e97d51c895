package rollup

import (
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/sha3"
)

// IdentifierLen is the length in bytes of block, blob and snapshot identifiers.
const IdentifierLen = 32

// Identifier identifies a DA block (or any other entity) by the SHA3-256 hash
// of its canonical encoding.
type Identifier [IdentifierLen]byte

// ZeroID is the lowest value in the 32-byte ID space.
var ZeroID = Identifier{}

// encMode is the canonical (core deterministic) CBOR encoding used for
// fingerprinting entities, so that equal values always hash to equal IDs.
var encMode = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("could not create canonical cbor encoding: %v", err))
	}
	return mode
}()

// HexStringToIdentifier converts a hex string to an identifier. The input
// must be 64 characters long and contain only valid hex characters.
func HexStringToIdentifier(hexString string) (Identifier, error) {
	var identifier Identifier
	i, err := hex.Decode(identifier[:], []byte(hexString))
	if err != nil {
		return identifier, err
	}
	if i != IdentifierLen {
		return identifier, fmt.Errorf("malformed input, expected %d bytes (%d hex chars), decoded %d", IdentifierLen, IdentifierLen*2, i)
	}
	return identifier, nil
}

// MustHexStringToIdentifier converts a hex string to an identifier and panics
// on malformed input. Only used for constants and tests.
func MustHexStringToIdentifier(hexString string) Identifier {
	id, err := HexStringToIdentifier(hexString)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the hex string representation of the identifier.
func (id Identifier) String() string {
	return hex.EncodeToString(id[:])
}

// TerminalString returns a short prefix of the identifier for log lines.
func (id Identifier) TerminalString() string {
	return hex.EncodeToString(id[:4])
}

// IsZero returns true if the identifier is the zero value.
func (id Identifier) IsZero() bool {
	return id == ZeroID
}

// MakeID creates an ID from the hash of the canonical encoding of the given entity.
func MakeID(entity interface{}) Identifier {
	data, err := encMode.Marshal(entity)
	if err != nil {
		panic(fmt.Sprintf("could not encode entity for fingerprinting: %v", err))
	}
	return HashToID(data)
}

// HashToID hashes the raw bytes into an identifier.
func HashToID(data []byte) Identifier {
	return Identifier(sha3.Sum256(data))
}
