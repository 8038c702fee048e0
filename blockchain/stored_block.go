// Package blockchain implements the block store (spec.md §4.3): a
// bbolt-backed index of block headers keyed by a dense blockid, the
// main-chain selection and reorg procedure, and the locator/lookup
// operations peer sync relies on.
package blockchain

import (
	"encoding/binary"

	"github.com/coreward/fullnode/wire"
)

// PreGenesisBlockID is the sentinel row representing "no block":
// previous_blockid of the genesis row, height -1.
const PreGenesisBlockID uint32 = 0

// GenesisBlockID is always 1; genesis always sits at height 0.
const GenesisBlockID uint32 = 1

// StoredBlock is a block header plus the store's bookkeeping fields
// (spec.md §3's StoredBlock record).
type StoredBlock struct {
	Header          wire.BlockHeader
	BlockID         uint32
	PreviousBlockID uint32
	Height          int32
	TxnCount        uint32
	MainChain       bool
}

// BlockHash returns the identity hash of the stored header.
func (b *StoredBlock) BlockHash() [32]byte {
	return b.Header.BlockHash()
}

const storedBlockMetaSize = 4 + 4 + 4 + 4 + 1 // blockid | previous_blockid | height | txn_count | mainchain

// encodeMeta serializes everything but the header itself; the header
// bytes live in their own bucket so locator/lookup code that only
// needs hashes never has to deserialize metadata.
func (b *StoredBlock) encodeMeta() []byte {
	out := make([]byte, storedBlockMetaSize)
	binary.BigEndian.PutUint32(out[0:4], b.BlockID)
	binary.BigEndian.PutUint32(out[4:8], b.PreviousBlockID)
	binary.BigEndian.PutUint32(out[8:12], uint32(b.Height))
	binary.BigEndian.PutUint32(out[12:16], b.TxnCount)
	if b.MainChain {
		out[16] = 1
	}
	return out
}

func decodeMeta(b []byte) (StoredBlock, error) {
	if len(b) != storedBlockMetaSize {
		return StoredBlock{}, storeErr(ErrNotFound, "truncated block metadata")
	}
	return StoredBlock{
		BlockID:         binary.BigEndian.Uint32(b[0:4]),
		PreviousBlockID: binary.BigEndian.Uint32(b[4:8]),
		Height:          int32(binary.BigEndian.Uint32(b[8:12])),
		TxnCount:        binary.BigEndian.Uint32(b[12:16]),
		MainChain:       b[16] != 0,
	}, nil
}

func blockIDKey(id uint32) []byte {
	var k [4]byte
	binary.BigEndian.PutUint32(k[:], id)
	return k[:]
}

func heightKey(height int32) []byte {
	var k [4]byte
	binary.BigEndian.PutUint32(k[:], uint32(height))
	return k[:]
}
