package p2p

import "github.com/coreward/fullnode/wire"

// Handler is the set of protocol reactions a peer connection drives.
// node.Server implements Handler to apply version negotiation, relay,
// and sync effects; p2p itself holds no chain or mempool state. This
// mirrors the teacher's PeerHandler (node/p2p/peer.go) generalized to
// spec.md §4.7's full on_* set.
type Handler interface {
	// OnVersion is called once the peer's version message decodes
	// successfully. A returned error ends Peer.Run, which hands it back
	// to its caller; node's session goroutine then closes the
	// connection.
	OnVersion(p *Peer, v *wire.VersionPayload) error
	OnVerack(p *Peer) error

	OnAddr(p *Peer, addrs []wire.NetAddr) error
	OnGetAddr(p *Peer) error

	OnInv(p *Peer, inv []wire.InvVector) error
	OnGetData(p *Peer, inv []wire.InvVector) error
	OnNotFound(p *Peer, inv []wire.InvVector) error

	OnGetBlocks(p *Peer, req *wire.GetBlocksPayload) error
	OnGetHeaders(p *Peer, req *wire.GetHeadersPayload) error
	OnHeaders(p *Peer, headers *wire.HeadersPayload) error

	// OnBlock and OnTx receive the still-undecoded wire payload: block
	// and transaction decoding belongs to blockchain/wire.Transaction,
	// not to the connection layer.
	OnBlock(p *Peer, raw []byte) error
	OnTx(p *Peer, raw []byte) error

	OnMempool(p *Peer) error
	OnPing(p *Peer, nonce uint64) error
	OnPong(p *Peer, nonce uint64) error
	OnReject(p *Peer, r *wire.RejectPayload) error
	OnAlert(p *Peer, a *wire.AlertPayload) error
}
