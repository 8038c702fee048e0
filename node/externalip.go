package node

import "net/netip"

// recordExternalIPVote tallies one peer's version.addr_recv claim
// about our address (spec.md §4.7: "each peer's version.addr_recv.address
// is a vote"). Called once per peer, from on_version.
func (s *Server) recordExternalIPVote(addr netip.Addr) {
	if !addr.IsValid() || addr.IsUnspecified() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.externalIPVotes[addr]++
}

// ExternalIP returns the orchestrator's current best guess at this
// node's externally-visible address: the majority vote among peers'
// addr_recv claims, falling back to the bound local address before
// any peer has reported (spec.md §4.7).
func (s *Server) ExternalIP() netip.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best netip.Addr
	bestVotes := 0
	for addr, votes := range s.externalIPVotes {
		if votes > bestVotes {
			best = addr
			bestVotes = votes
		}
	}
	if bestVotes == 0 {
		return s.localAddr.Addr()
	}
	return best
}

// SetLocalAddr records the address this node is bound to, used as the
// external-IP fallback until peers start voting.
func (s *Server) SetLocalAddr(addr netip.AddrPort) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localAddr = addr
}
