package rollup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/rollup-node/model/rollup"
)

func TestHexStringToIdentifier(t *testing.T) {
	id := rollup.HashToID([]byte("rollup"))

	decoded, err := rollup.HexStringToIdentifier(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, decoded)

	_, err = rollup.HexStringToIdentifier("abcd")
	require.Error(t, err)

	_, err = rollup.HexStringToIdentifier("zz")
	require.Error(t, err)
}

func TestBlockID(t *testing.T) {
	sender := rollup.Address{11}
	blobA := []rollup.Blob{{Sender: sender, Sequence: 0, Data: []byte{1, 1, 1, 1}}}
	blobX := []rollup.Blob{{Sender: sender, Sequence: 0, Data: []byte{13, 13, 13, 13}}}

	t.Run("deterministic", func(t *testing.T) {
		a := rollup.NewBlock(3, nil, 0, blobA, nil)
		b := rollup.NewBlock(3, nil, 0, blobA, nil)
		assert.Equal(t, a.ID(), b.ID())
	})

	t.Run("payload changes id", func(t *testing.T) {
		a := rollup.NewBlock(3, nil, 0, blobA, nil)
		x := rollup.NewBlock(3, nil, 0, blobX, nil)
		assert.NotEqual(t, a.ID(), x.ID())
	})

	t.Run("parent changes id", func(t *testing.T) {
		parent := rollup.HashToID([]byte("parent"))
		a := rollup.NewBlock(3, nil, 0, blobA, nil)
		linked := rollup.NewBlock(3, &parent, 0, blobA, nil)
		assert.NotEqual(t, a.ID(), linked.ID())
		assert.True(t, linked.Header.HasParent())
		assert.False(t, a.Header.HasParent())
	})
}
