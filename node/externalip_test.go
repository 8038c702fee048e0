package node

import (
	"net/netip"
	"testing"

	"github.com/coreward/fullnode/chaincfg"
)

func newTestServer() *Server {
	return NewServer(DefaultConfig(), chaincfg.Params{}, nil, nil, nil, nil, nil)
}

func TestExternalIPFallsBackToLocalAddrBeforeVotes(t *testing.T) {
	s := newTestServer()
	local := netip.MustParseAddrPort("203.0.113.5:8333")
	s.SetLocalAddr(local)
	if got := s.ExternalIP(); got != local.Addr() {
		t.Fatalf("got %v want %v", got, local.Addr())
	}
}

func TestExternalIPUsesMajorityVote(t *testing.T) {
	s := newTestServer()
	a := netip.MustParseAddr("198.51.100.1")
	b := netip.MustParseAddr("198.51.100.2")
	s.recordExternalIPVote(a)
	s.recordExternalIPVote(a)
	s.recordExternalIPVote(b)
	if got := s.ExternalIP(); got != a {
		t.Fatalf("got %v want %v", got, a)
	}
}

func TestExternalIPIgnoresInvalidAndUnspecified(t *testing.T) {
	s := newTestServer()
	s.recordExternalIPVote(netip.Addr{})
	s.recordExternalIPVote(netip.IPv4Unspecified())
	if got := s.ExternalIP(); got.IsValid() {
		t.Fatalf("expected no valid vote recorded, got %v", got)
	}
}
