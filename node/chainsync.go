package node

import (
	"math/rand"
	"time"

	"github.com/coreward/fullnode/p2p"
	"github.com/coreward/fullnode/wire"
)

// SyncHeaders implements spec.md §4.7's sync_blockchain_headers: if no
// getheaders has gone out in the last GetHeadersCadence, pick a random
// verack-ready peer and request more.
func (s *Server) SyncHeaders() error {
	s.mu.Lock()
	last := s.lastGetHeaders
	s.mu.Unlock()
	if time.Since(last) < GetHeadersCadence {
		return nil
	}
	ready := s.readyPeers()
	if len(ready) == 0 {
		return nil
	}
	return s.sendGetHeaders(ready[rand.Intn(len(ready))].Peer)
}

// sendGetHeaders sends a getheaders built from the current block
// locator to p, and records the send time so SyncHeaders's cadence
// check and the "immediately send another getheaders" on_headers rule
// both see it.
func (s *Server) sendGetHeaders(p *p2p.Peer) error {
	locator, err := s.Chain.BlockLocatorHashes()
	if err != nil {
		return err
	}
	payload, err := wire.GetHeadersPayload{
		ProtocolVersion:    s.coin.ProtocolVersion,
		BlockLocatorHashes: locator,
	}.Encode()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.lastGetHeaders = time.Now()
	s.mu.Unlock()
	return p.Send(wire.CmdGetHeaders, payload)
}

// SyncBlocks implements spec.md §4.7's sync_blockchain_blocks: top up
// the incomplete-blocks working set from the store, then for each
// verack-ready peer under its in-flight quota, claim hashes whose
// last-request age exceeds ReRequestFloor and send a single getdata
// for up to the remaining quota.
func (s *Server) SyncBlocks() error {
	if err := s.topUpIncomplete(); err != nil {
		return err
	}

	ready := s.readyPeers()
	for _, session := range ready {
		quota := MaxIncompleteInFlight - session.Peer.InFlightBlocks
		if quota <= 0 {
			continue
		}
		claimed := s.claimIncomplete(quota)
		if len(claimed) == 0 {
			continue
		}
		inv := make([]wire.InvVector, len(claimed))
		for i, h := range claimed {
			inv[i] = wire.InvVector{Type: wire.InvTypeBlock, Hash: h}
		}
		payload, err := wire.GetDataPayload{Inventory: inv}.Encode()
		if err != nil {
			return err
		}
		if err := session.Peer.Send(wire.CmdGetData, payload); err != nil {
			return err
		}
		session.Peer.InFlightBlocks += len(claimed)
	}
	return nil
}

// topUpIncomplete fills s.incomplete from the block store's
// incomplete-blocks cursor up to MaxIncompleteBlocks.
func (s *Server) topUpIncomplete() error {
	s.mu.Lock()
	have := len(s.incomplete)
	s.mu.Unlock()
	if have >= MaxIncompleteBlocks {
		return nil
	}

	blocks, err := s.Chain.IncompleteBlocks(0, MaxIncompleteBlocks-have)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing := make(map[[32]byte]bool, len(s.incomplete))
	for _, e := range s.incomplete {
		existing[e.Hash] = true
	}
	for i := range blocks {
		hash := blocks[i].BlockHash()
		if existing[hash] {
			continue
		}
		s.incomplete = append(s.incomplete, incompleteEntry{Hash: hash})
		existing[hash] = true
	}
	return nil
}

// claimIncomplete returns up to n hashes whose last-request age
// exceeds ReRequestFloor, stamping their request time as now.
func (s *Server) claimIncomplete(n int) [][32]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out [][32]byte
	now := time.Now()
	for i := range s.incomplete {
		if len(out) >= n {
			break
		}
		if now.Sub(s.incomplete[i].LastRequested) < ReRequestFloor {
			continue
		}
		s.incomplete[i].LastRequested = now
		out = append(out, s.incomplete[i].Hash)
	}
	return out
}

// clearIncomplete removes hash from the working set once its body has
// been applied.
func (s *Server) clearIncomplete(hash [32]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.incomplete {
		if e.Hash == hash {
			s.incomplete = append(s.incomplete[:i], s.incomplete[i+1:]...)
			return
		}
	}
}
