package wire

import (
	"encoding/binary"

	"github.com/coreward/fullnode/cryptoutil"
)

// HeaderSize is the fixed encoded length of a BlockHeader.
const HeaderSize = 80

// BlockHeader is spec.md §3's 80-byte header.
type BlockHeader struct {
	Version    uint32
	PrevHash   [32]byte
	MerkleRoot [32]byte
	Timestamp  uint32
	Bits       uint32
	Nonce      uint32
}

// Encode serializes h to its fixed 80-byte wire form.
func (h BlockHeader) Encode() [HeaderSize]byte {
	var buf [HeaderSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], h.Version)
	copy(buf[4:36], h.PrevHash[:])
	copy(buf[36:68], h.MerkleRoot[:])
	binary.LittleEndian.PutUint32(buf[68:72], h.Timestamp)
	binary.LittleEndian.PutUint32(buf[72:76], h.Bits)
	binary.LittleEndian.PutUint32(buf[76:80], h.Nonce)
	return buf
}

// DecodeBlockHeader parses the fixed 80-byte header form.
func DecodeBlockHeader(b []byte) (BlockHeader, error) {
	if len(b) < HeaderSize {
		return BlockHeader{}, badFormat("block_header", "truncated")
	}
	var h BlockHeader
	h.Version = binary.LittleEndian.Uint32(b[0:4])
	copy(h.PrevHash[:], b[4:36])
	copy(h.MerkleRoot[:], b[36:68])
	h.Timestamp = binary.LittleEndian.Uint32(b[68:72])
	h.Bits = binary.LittleEndian.Uint32(b[72:76])
	h.Nonce = binary.LittleEndian.Uint32(b[76:80])
	return h, nil
}

// BlockHash is SHA256²(Encode()), the identity hash used for blockid
// lookups and block locators.
func (h BlockHeader) BlockHash() [32]byte {
	enc := h.Encode()
	return cryptoutil.Sha256d(enc[:])
}

// Block is a header plus its full transaction set, as carried by the
// `block` message and by C4/C5 once transactions have arrived.
type Block struct {
	Header       BlockHeader
	Transactions []Transaction
}

// Encode serializes b as header || varint(txn_count) || transactions.
func (b Block) Encode() []byte {
	h := b.Header.Encode()
	out := append([]byte(nil), h[:]...)
	out = append(out, CompactSize(len(b.Transactions)).Encode()...)
	for i := range b.Transactions {
		out = append(out, b.Transactions[i].Encode()...)
	}
	return out
}

// DecodeBlock parses a full block.
func DecodeBlock(raw []byte) (*Block, error) {
	if len(raw) < HeaderSize {
		return nil, badFormat("block", "truncated header")
	}
	h, err := DecodeBlockHeader(raw[:HeaderSize])
	if err != nil {
		return nil, err
	}
	off := HeaderSize
	count, used, err := DecodeCompactSize(raw[off:])
	if err != nil {
		return nil, err
	}
	off += used

	blk := &Block{Header: h, Transactions: make([]Transaction, 0, count)}
	for i := uint64(0); i < uint64(count); i++ {
		tx, n, err := DecodeTransaction(raw[off:])
		if err != nil {
			return nil, err
		}
		blk.Transactions = append(blk.Transactions, *tx)
		off += n
	}
	if off != len(raw) {
		return nil, badFormat("block", "trailing bytes")
	}
	return blk, nil
}

// MerkleRoot computes the Merkle root over txids, duplicating the
// final hash at each level that has an odd count of nodes.
func MerkleRoot(txids [][32]byte) [32]byte {
	if len(txids) == 0 {
		return [32]byte{}
	}
	level := make([][32]byte, len(txids))
	copy(level, txids)

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([][32]byte, len(level)/2)
		for i := 0; i < len(next); i++ {
			var buf [64]byte
			copy(buf[0:32], level[2*i][:])
			copy(buf[32:64], level[2*i+1][:])
			next[i] = cryptoutil.Sha256d(buf[:])
		}
		level = next
	}
	return level[0]
}
