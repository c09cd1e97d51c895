package rollup

import (
	"encoding/hex"
)

// AddressLen is the length of a blob sender address.
const AddressLen = 32

// Address identifies the sender of a blob on the DA layer.
type Address [AddressLen]byte

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// Blob is an opaque unit of transaction data submitted to the DA layer.
type Blob struct {
	Sender   Address
	Sequence uint64
	Data     []byte
}

// ValidityCondition is passed through to the state transition function untouched.
type ValidityCondition []byte

// Header is the part of a DA block used for chain linkage.
type Header struct {
	Height uint64
	// ParentID is optional, not every DA layer links blocks by hash.
	ParentID    *Identifier
	Timestamp   uint64
	PayloadHash Identifier
}

// ID returns the identifier of the block this header belongs to.
func (h *Header) ID() Identifier {
	return MakeID(h)
}

// HasParent returns true if the header carries a parent link.
func (h *Header) HasParent() bool {
	return h.ParentID != nil
}

// Block is a block observed on the DA layer.
type Block struct {
	Header   *Header
	Blobs    []Blob
	Validity ValidityCondition
}

// payload is the content of a block committed to by the header.
type payload struct {
	Blobs    []Blob
	Validity ValidityCondition
}

// PayloadHash returns the hash of the blobs and validity condition of a block.
func PayloadHash(blobs []Blob, validity ValidityCondition) Identifier {
	return MakeID(payload{Blobs: blobs, Validity: validity})
}

// NewBlock builds a block at the given height and fills in the payload hash.
func NewBlock(height uint64, parentID *Identifier, timestamp uint64, blobs []Blob, validity ValidityCondition) *Block {
	return &Block{
		Header: &Header{
			Height:      height,
			ParentID:    parentID,
			Timestamp:   timestamp,
			PayloadHash: PayloadHash(blobs, validity),
		},
		Blobs:    blobs,
		Validity: validity,
	}
}

// ID returns the identifier of the block.
func (b *Block) ID() Identifier {
	return b.Header.ID()
}

// Height returns the DA height of the block.
func (b *Block) Height() uint64 {
	return b.Header.Height
}
