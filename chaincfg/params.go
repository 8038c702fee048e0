// Package chaincfg holds per-coin configuration records: magic bytes,
// default port, genesis block fields, address version bytes, DNS
// seeds, and the proof-of-work/subsidy function selectors. Nothing in
// this package makes a network call or opens a file; it is pure data.
package chaincfg

import "github.com/coreward/fullnode/wire"

// PoWFunc names which hash function a coin's proof-of-work check uses.
type PoWFunc int

const (
	PoWSha256d PoWFunc = iota
	PoWScrypt
)

// GenesisFields are the six header fields that seed a chain; the
// genesis block's previous_hash is always the all-zero hash.
type GenesisFields struct {
	Version    uint32
	MerkleRoot [32]byte
	Timestamp  uint32
	Bits       uint32
	Nonce      uint32
}

// SubsidyFunc computes the block reward in satoshis for a given
// height, before fees.
type SubsidyFunc func(height uint32) int64

// HalvingSubsidy builds the standard "base, halving every interval
// blocks" subsidy schedule shared by Bitcoin and most of its forks.
func HalvingSubsidy(base int64, interval uint32) SubsidyFunc {
	return func(height uint32) int64 {
		halvings := height / interval
		if halvings >= 64 {
			return 0
		}
		return base >> halvings
	}
}

// Params is a coin's full configuration record: the single options
// structure serve_forever accepts as its "coin" argument.
type Params struct {
	Name            string
	Symbols         []string
	DNSSeeds        []string
	Port            uint16
	ProtocolVersion uint32
	Magic           uint32
	AddressVersion  byte
	ScriptAddress   byte
	AlertPublicKey  []byte

	Genesis GenesisFields

	ProofOfWork  PoWFunc
	BlockSubsidy SubsidyFunc
}

// GenesisHeader builds the full genesis wire.BlockHeader; its
// previous_hash is always the all-zero hash.
func (p *Params) GenesisHeader() wire.BlockHeader {
	return wire.BlockHeader{
		Version:    p.Genesis.Version,
		MerkleRoot: p.Genesis.MerkleRoot,
		Timestamp:  p.Genesis.Timestamp,
		Bits:       p.Genesis.Bits,
		Nonce:      p.Genesis.Nonce,
	}
}

// GenesisHeaderBytes serializes the 80-byte genesis block header.
func (p *Params) GenesisHeaderBytes() [wire.HeaderSize]byte {
	return p.GenesisHeader().Encode()
}

// GenesisHash is the SHA256² identity hash of the genesis header.
func (p *Params) GenesisHash() [32]byte {
	return p.GenesisHeader().BlockHash()
}
