package node

import (
	"errors"
	"net/netip"
	"time"

	"github.com/coreward/fullnode/blockchain"
	"github.com/coreward/fullnode/p2p"
	"github.com/coreward/fullnode/wire"
)

// Server implements p2p.Handler: every on_* callback spec.md §4.7
// names. None of these methods take s.mu directly except through the
// Book/mempool/incomplete helpers, which manage their own locking.

// OnVersion records the peer's capabilities (p2p.Peer already stashed
// the decoded payload before calling this), answers with verack, and
// tallies an external-address vote (spec.md §4.7: "on first successful
// handshake, invoke the external-address tally").
func (s *Server) OnVersion(p *p2p.Peer, v *wire.VersionPayload) error {
	if addr, ok := netip.AddrFromSlice(v.AddrRecv.IP.To4()); ok {
		s.recordExternalIPVote(addr)
	}
	return p.SendVerack()
}

// OnVerack marks the peer ready and adds it to the address book.
func (s *Server) OnVerack(p *p2p.Peer) error {
	if addr, ok := remoteAddrPort(p); ok {
		s.Book.Add(addr, s.cfg.Services, time.Now())
	}
	return nil
}

// OnAddr folds every advertised address into the book, up to its own
// internal cap.
func (s *Server) OnAddr(p *p2p.Peer, addrs []wire.NetAddr) error {
	now := time.Now()
	for _, a := range addrs {
		ip, ok := netip.AddrFromSlice(a.IP.To4())
		if !ok {
			continue
		}
		seen := now
		if a.Timestamp != 0 {
			seen = time.Unix(int64(a.Timestamp), 0)
		}
		s.Book.Add(netip.AddrPortFrom(ip, a.Port), a.Services, seen)
	}
	return nil
}

// OnGetAddr answers with our address book.
func (s *Server) OnGetAddr(p *p2p.Peer) error {
	entries := s.Book.Entries()
	addrs := make([]wire.NetAddr, 0, len(entries))
	for _, e := range entries {
		addrs = append(addrs, wire.NetAddr{
			Timestamp: uint32(e.LastSeen.Unix()),
			Services:  e.Services,
			IP:        e.Addr.Addr().AsSlice(),
			Port:      e.Addr.Port(),
		})
	}
	payload, err := wire.AddrPayload{Addrs: addrs}.Encode()
	if err != nil {
		return err
	}
	return p.Send(wire.CmdAddr, payload)
}

// OnInv is a deliberate no-op: spec.md §4.7 defers advertisement-based
// block fetch ("on_inv: currently ignored").
func (s *Server) OnInv(p *p2p.Peer, inv []wire.InvVector) error { return nil }

// OnGetData answers with notfound for every requested item: full
// block-body reassembly from the partitioned transaction store and
// mempool transaction lookup are both out of this reply path's scope
// for now — headers-only peers are still served correctly by
// on_getheaders/on_getblocks.
func (s *Server) OnGetData(p *p2p.Peer, inv []wire.InvVector) error {
	if len(inv) == 0 {
		return nil
	}
	payload, err := wire.NotFoundPayload{Inventory: inv}.Encode()
	if err != nil {
		return err
	}
	return p.Send(wire.CmdNotFound, payload)
}

// OnNotFound decrements the peer's in-flight count for whatever it
// could not supply.
func (s *Server) OnNotFound(p *p2p.Peer, inv []wire.InvVector) error {
	decrementInFlight(p, len(inv))
	return nil
}

// OnGetBlocks answers with up to 500 successor hashes as an inv list.
func (s *Server) OnGetBlocks(p *p2p.Peer, req *wire.GetBlocksPayload) error {
	hashes, err := s.Chain.LocateBlocks(req.BlockLocatorHashes, 500, req.HashStop)
	if err != nil {
		return err
	}
	inv := make([]wire.InvVector, len(hashes))
	for i, h := range hashes {
		inv[i] = wire.InvVector{Type: wire.InvTypeBlock, Hash: h}
	}
	payload, err := wire.InvPayload{Inventory: inv}.Encode()
	if err != nil {
		return err
	}
	return p.Send(wire.CmdInv, payload)
}

// OnGetHeaders answers with up to 2,000 successor headers.
func (s *Server) OnGetHeaders(p *p2p.Peer, req *wire.GetHeadersPayload) error {
	hashes, err := s.Chain.LocateBlocks(req.BlockLocatorHashes, 2000, req.HashStop)
	if err != nil {
		return err
	}
	headers := make([]wire.BlockHeaderWithTxnCount, 0, len(hashes))
	for _, h := range hashes {
		block, ok, err := s.Chain.GetByHash(h)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		headers = append(headers, wire.BlockHeaderWithTxnCount{Header: block.Header.Encode(), TxnCount: 0})
	}
	payload, err := wire.HeadersPayload{Headers: headers}.Encode()
	if err != nil {
		return err
	}
	return p.Send(wire.CmdHeaders, payload)
}

// OnHeaders feeds every header through AddHeader in arrival order; a
// duplicate or orphan header is routine during normal sync and does
// not count as misbehavior, but an invalid-work header is a real
// protocol violation and is returned for the dispatch loop to
// penalize. On any acceptance, immediately request more (spec.md
// §4.7).
func (s *Server) OnHeaders(p *p2p.Peer, headers *wire.HeadersPayload) error {
	accepted := false
	for _, h := range headers.Headers {
		hdr, err := wire.DecodeBlockHeader(h.Header[:])
		if err != nil {
			return err
		}
		_, err = s.Chain.AddHeader(hdr)
		switch {
		case err == nil:
			accepted = true
		case isBenignHeaderError(err):
			continue
		default:
			return err
		}
	}
	if accepted {
		return s.sendGetHeaders(p)
	}
	return nil
}

// OnBlock decodes a full block body and applies it: C5.add (transaction
// index) followed by C6.update (UTXO set) when it is the next
// consecutive block, then clears its incomplete-blocks and in-flight
// bookkeeping.
func (s *Server) OnBlock(p *p2p.Peer, raw []byte) error {
	blk, err := wire.DecodeBlock(raw)
	if err != nil {
		return err
	}
	hash := blk.Header.BlockHash()

	stored, ok, err := s.Chain.GetByHash(hash)
	if err != nil {
		return err
	}
	if !ok {
		// Header not seen yet; nothing to attach this body to.
		return nil
	}

	if err := s.Chain.AddTransactions(hash, blk.Transactions, s.Txs); err != nil {
		return err
	}

	last, err := s.Utxo.LastValidBlock()
	if err != nil {
		return err
	}
	if stored.PreviousBlockID == last {
		if _, err := s.Utxo.Update(stored, blk.Transactions, s.Txs, s.coin.BlockSubsidy); err != nil {
			return err
		}
	}

	decrementInFlight(p, 1)
	s.clearIncomplete(hash)
	return nil
}

// OnTx records the transaction in the dedup ring so it is not
// reprocessed on a later re-advertisement. Relay/mempool admission
// policy beyond that is out of scope (spec.md §4.1).
func (s *Server) OnTx(p *p2p.Peer, raw []byte) error {
	txn, _, err := wire.DecodeTransaction(raw)
	if err != nil {
		return err
	}
	s.mempool.Add(txn.Txid())
	return nil
}

// OnMempool is unimplemented: this node never advertises its own
// mempool contents (spec.md §4.1 scopes mempool relay policy out).
func (s *Server) OnMempool(p *p2p.Peer) error { return nil }

// OnPing answers with a pong carrying the same nonce.
func (s *Server) OnPing(p *p2p.Peer, nonce uint64) error {
	return p.Send(wire.CmdPong, wire.PingPongPayload{Nonce: nonce}.Encode())
}

// OnPong is a no-op: p2p.Peer.Run already tracks LastRx for liveness;
// node has no outstanding-ping tracking to resolve.
func (s *Server) OnPong(p *p2p.Peer, nonce uint64) error { return nil }

// OnReject decrements in-flight counts; a peer that rejected our
// request will not be answering it.
func (s *Server) OnReject(p *p2p.Peer, r *wire.RejectPayload) error {
	decrementInFlight(p, 1)
	return nil
}

// OnAlert verifies the alert's signature against the coin's alert key;
// a valid alert is archived, an invalid one is logged and dropped
// (spec.md §4.7).
func (s *Server) OnAlert(p *p2p.Peer, a *wire.AlertPayload) error {
	if !verifyAlertSignature(a, s.coin.AlertPublicKey) {
		s.log.Warn("dropping alert with invalid signature")
		return nil
	}
	s.archiveAlert(a)
	return nil
}

func decrementInFlight(p *p2p.Peer, n int) {
	p.InFlightBlocks -= n
	if p.InFlightBlocks < 0 {
		p.InFlightBlocks = 0
	}
}

// isBenignHeaderError reports whether err is routine during normal
// sync (a header we already have, or one whose parent we have not
// seen yet because headers arrived out of order) rather than a real
// protocol violation.
func isBenignHeaderError(err error) bool {
	var serr *blockchain.StoreError
	if !errors.As(err, &serr) {
		return false
	}
	return serr.Code == blockchain.ErrDuplicate || serr.Code == blockchain.ErrOrphan
}

// remoteAddrPort extracts the connection's remote address as a
// netip.AddrPort, for recording in the address book.
func remoteAddrPort(p *p2p.Peer) (netip.AddrPort, bool) {
	ap, err := netip.ParseAddrPort(p.Conn.RemoteAddr().String())
	if err != nil {
		return netip.AddrPort{}, false
	}
	return ap, true
}
