package node

import (
	"context"
	"math/rand"
	"net"
	"net/netip"

	"github.com/coreward/fullnode/p2p"
	"github.com/coreward/fullnode/wire"
	"go.uber.org/zap"
)

// Heartbeat runs one tick of spec.md §4.7's maintenance loop: dial out
// if under seek_peers, occasionally ask a peer for more addresses when
// the book is small, decay every peer's ban score, and age the relay
// counters. Callers drive this on a HeartbeatInterval ticker.
func (s *Server) Heartbeat(ctx context.Context) {
	s.dialOut(ctx)
	s.maybeGetAddr()
	s.relay.Age()

	s.eachPeer(func(_ string, session *PeerSession) {
		session.Peer.Ban.Decay()
	})
}

// maybeGetAddr asks one ready peer for more addresses when the book is
// running low (spec.md §4.7 step 2).
func (s *Server) maybeGetAddr() {
	if s.Book.Len() >= SmallAddrBook {
		return
	}
	ready := s.readyPeers()
	if len(ready) == 0 {
		return
	}
	peer := ready[rand.Intn(len(ready))].Peer
	_ = peer.Send(wire.CmdGetAddr, nil)
}

// dialOut attempts up to MaxDialAttempts outbound connections while
// under cfg.SeekPeers, biasing toward discovery.Source over the address
// book roughly 1-in-DiscoveryBias of the time even when the book is
// non-empty (spec.md §4.7 step 1).
func (s *Server) dialOut(ctx context.Context) {
	if s.PeerCount() >= s.cfg.SeekPeers {
		return
	}

	for attempt := 0; attempt < MaxDialAttempts && s.PeerCount() < s.cfg.SeekPeers; attempt++ {
		addr, ok := s.pickDialCandidate(ctx)
		if !ok {
			return
		}
		if s.hasPeer(addr) {
			continue
		}
		if err := s.DialPeer(ctx, addr); err != nil {
			s.log.Warn("dial failed", zap.String("addr", addr.String()), zap.Error(err))
			s.Book.Remove(addr)
		}
	}
}

// pickDialCandidate chooses one candidate address, biased toward
// discovery.Source about 1-in-DiscoveryBias of the time even when the
// book already has entries.
func (s *Server) pickDialCandidate(ctx context.Context) (netip.AddrPort, bool) {
	useDiscovery := s.Book.Len() == 0 || rand.Intn(DiscoveryBias) == 0
	if useDiscovery && s.Discovery != nil {
		seeds, err := s.Discovery.Seeds(ctx)
		if err == nil && len(seeds) > 0 {
			return seeds[rand.Intn(len(seeds))], true
		}
	}
	entry, ok := s.Book.Random()
	return entry.Addr, ok
}

func (s *Server) hasPeer(addr netip.AddrPort) bool {
	found := false
	s.eachPeer(func(_ string, session *PeerSession) {
		if session.RemoteAddr == addr {
			found = true
		}
	})
	return found
}

// DialPeer opens one outbound connection, runs the dispatch loop in its
// own goroutine, and registers the session.
func (s *Server) DialPeer(ctx context.Context, addr netip.AddrPort) error {
	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		return err
	}
	s.startSession(ctx, conn, false, addr)
	return nil
}

// Listen accepts inbound connections on cfg.BindAddr until ctx is
// canceled.
func (s *Server) Listen(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.cfg.BindAddr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		var remote netip.AddrPort
		if ap, aerr := netip.ParseAddrPort(conn.RemoteAddr().String()); aerr == nil {
			remote = ap
		}
		s.startSession(ctx, conn, true, remote)
	}
}

// startSession wraps conn in a p2p.Peer, registers it, and runs its
// dispatch loop in a new goroutine, removing it on exit and sending the
// opening version message for outbound connections.
func (s *Server) startSession(ctx context.Context, conn net.Conn, inbound bool, remote netip.AddrPort) {
	peer := p2p.NewPeer(conn, inbound, s.peerConfig())
	key := conn.RemoteAddr().String()
	session := &PeerSession{Peer: peer, RemoteAddr: remote}
	s.addPeer(key, session)

	if !inbound {
		local := s.ExternalIP()
		addrFrom := wire.NetAddr{Services: s.cfg.Services, IP: local.AsSlice(), Port: 0}
		addrRecv := wire.NetAddr{Services: 0, IP: remote.Addr().AsSlice(), Port: remote.Port()}
		if err := peer.SendVersion(addrRecv, addrFrom); err != nil {
			s.removePeer(key)
			_ = conn.Close()
			return
		}
	}

	go func() {
		defer s.removePeer(key)
		defer conn.Close()
		if err := peer.Run(ctx, s); err != nil {
			s.log.Debug("peer session ended", zap.Error(err))
		}
	}()
}
