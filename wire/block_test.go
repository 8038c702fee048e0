package wire

import (
	"testing"

	"github.com/coreward/fullnode/cryptoutil"
	"github.com/stretchr/testify/require"
)

func TestBlockHeaderRoundTrip(t *testing.T) {
	h := BlockHeader{
		Version:    1,
		PrevHash:   [32]byte{9, 9, 9},
		MerkleRoot: [32]byte{1, 1, 1},
		Timestamp:  1234567890,
		Bits:       0x1d00ffff,
		Nonce:      42,
	}
	enc := h.Encode()
	require.Len(t, enc, HeaderSize)

	got, err := DecodeBlockHeader(enc[:])
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestBlockHashDeterministic(t *testing.T) {
	h := BlockHeader{Nonce: 1}
	a := h.BlockHash()
	b := h.BlockHash()
	require.Equal(t, a, b)

	h.Nonce = 2
	require.NotEqual(t, a, h.BlockHash())
}

func TestBlockRoundTrip(t *testing.T) {
	blk := Block{
		Header:       BlockHeader{Version: 1},
		Transactions: []Transaction{*sampleTx(), *sampleTx()},
	}
	blk.Transactions[1].LockTime = 7

	enc := blk.Encode()
	got, err := DecodeBlock(enc)
	require.NoError(t, err)
	require.Equal(t, blk.Header, got.Header)
	require.Len(t, got.Transactions, 2)
	require.Equal(t, blk.Transactions[0].Txid(), got.Transactions[0].Txid())
	require.Equal(t, blk.Transactions[1].Txid(), got.Transactions[1].Txid())
}

func TestMerkleRootSingleTx(t *testing.T) {
	tx := sampleTx()
	txid := tx.Txid()
	root := MerkleRoot([][32]byte{txid})
	require.Equal(t, txid, root)
}

func TestMerkleRootOddCountDuplicatesLast(t *testing.T) {
	a := [32]byte{1}
	b := [32]byte{2}
	c := [32]byte{3}

	// Three leaves: the odd-count rule appends a duplicate of the
	// last leaf before pairing, so level [a,b,c] becomes [a,b,c,c].
	got := MerkleRoot([][32]byte{a, b, c})

	pair := func(x, y [32]byte) [32]byte {
		var buf [64]byte
		copy(buf[0:32], x[:])
		copy(buf[32:64], y[:])
		return cryptoutil.Sha256d(buf[:])
	}
	want := pair(pair(a, b), pair(c, c))

	require.Equal(t, want, got)
}

func TestMerkleRootEmpty(t *testing.T) {
	require.Equal(t, [32]byte{}, MerkleRoot(nil))
}
