package p2p

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/coreward/fullnode/wire"
)

// recordingHandler implements Handler, records the version, verack and
// ping callbacks it receives, and returns the errors the test configured
// for headers and blocks.
type recordingHandler struct {
	versions   []*wire.VersionPayload
	veracks    int
	pings      []uint64
	headersErr error
	blockErr   error
}

func (h *recordingHandler) OnVersion(p *Peer, v *wire.VersionPayload) error {
	h.versions = append(h.versions, v)
	return nil
}
func (h *recordingHandler) OnVerack(p *Peer) error                                  { h.veracks++; return nil }
func (h *recordingHandler) OnAddr(p *Peer, addrs []wire.NetAddr) error              { return nil }
func (h *recordingHandler) OnGetAddr(p *Peer) error                                 { return nil }
func (h *recordingHandler) OnInv(p *Peer, inv []wire.InvVector) error               { return nil }
func (h *recordingHandler) OnGetData(p *Peer, inv []wire.InvVector) error           { return nil }
func (h *recordingHandler) OnNotFound(p *Peer, inv []wire.InvVector) error          { return nil }
func (h *recordingHandler) OnGetBlocks(p *Peer, req *wire.GetBlocksPayload) error   { return nil }
func (h *recordingHandler) OnGetHeaders(p *Peer, req *wire.GetHeadersPayload) error { return nil }
func (h *recordingHandler) OnHeaders(p *Peer, headers *wire.HeadersPayload) error {
	return h.headersErr
}
func (h *recordingHandler) OnBlock(p *Peer, raw []byte) error { return h.blockErr }
func (h *recordingHandler) OnTx(p *Peer, raw []byte) error    { return nil }
func (h *recordingHandler) OnMempool(p *Peer) error           { return nil }
func (h *recordingHandler) OnPing(p *Peer, nonce uint64) error {
	h.pings = append(h.pings, nonce)
	return nil
}
func (h *recordingHandler) OnPong(p *Peer, nonce uint64) error            { return nil }
func (h *recordingHandler) OnReject(p *Peer, r *wire.RejectPayload) error { return nil }
func (h *recordingHandler) OnAlert(p *Peer, a *wire.AlertPayload) error   { return nil }

func testConfig() PeerConfig {
	return PeerConfig{Magic: 0xd9b4bef9, Services: 1, ProtocolVersion: 70015, UserAgent: "/testnode/", OurHeight: 0}
}

func TestDispatchVersionInvokesHandlerAndStoresPeerVersion(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	p := NewPeer(server, true, testConfig())
	h := &recordingHandler{}

	v := wire.VersionPayload{ProtocolVersion: 70015, Services: 1, Nonce: 42, UserAgent: "/test/", Relay: true}
	payload, err := v.Encode()
	if err != nil {
		t.Fatalf("encode version: %v", err)
	}
	msg := &wire.Message{Command: wire.CmdVersion, Payload: payload}

	if err := p.dispatch(msg, h); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(h.versions) != 1 || h.versions[0].Nonce != 42 {
		t.Fatalf("OnVersion not invoked with decoded payload: %+v", h.versions)
	}
	if p.PeerVersion == nil || p.PeerVersion.Nonce != 42 {
		t.Fatalf("peer's PeerVersion not recorded")
	}
}

func TestDispatchVerackSetsReceivedFlag(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	p := NewPeer(server, true, testConfig())
	h := &recordingHandler{}

	if err := p.dispatch(&wire.Message{Command: wire.CmdVerack}, h); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !p.VerackReceived {
		t.Fatalf("VerackReceived not set")
	}
	if h.veracks != 1 {
		t.Fatalf("OnVerack not invoked")
	}
}

func TestDispatchMalformedPayloadAddsDecodePenaltyWithoutCallingHandler(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	p := NewPeer(server, true, testConfig())
	h := &recordingHandler{}

	if err := p.dispatch(&wire.Message{Command: wire.CmdPing, Payload: []byte{0x01}}, h); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(h.pings) != 0 {
		t.Fatalf("OnPing must not be called on malformed payload")
	}
	if p.Ban.Score() != 2 {
		t.Fatalf("ban score = %d, want 2", p.Ban.Score())
	}
}

func TestDispatchRejectedHeadersCrossesBanThreshold(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	p := NewPeer(server, true, testConfig())
	h := &recordingHandler{headersErr: errBoom}

	headers := wire.HeadersPayload{}
	payload, err := headers.Encode()
	if err != nil {
		t.Fatalf("encode headers: %v", err)
	}
	if err := p.dispatch(&wire.Message{Command: wire.CmdHeaders, Payload: payload}, h); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !p.Ban.ShouldBan() {
		t.Fatalf("rejected headers must push score above threshold, got %d", p.Ban.Score())
	}
}

func TestDispatchUnknownCommandIsIgnored(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	p := NewPeer(server, true, testConfig())
	h := &recordingHandler{}

	if err := p.dispatch(&wire.Message{Command: "notacommand", Payload: []byte{1, 2, 3}}, h); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if p.Ban.Score() != 0 {
		t.Fatalf("unknown command must not be penalized, got score %d", p.Ban.Score())
	}
}

// errBoom is a sentinel used by tests to simulate a handler rejecting
// a message.
var errBoom = &boomError{}

type boomError struct{}

func (*boomError) Error() string { return "boom" }

func TestRunExchangesVersionAndVerackThroughDispatchLoop(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	cfg := testConfig()

	server := NewPeer(serverConn, true, cfg)
	h := &recordingHandler{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- server.Run(ctx, h) }()

	v := wire.VersionPayload{ProtocolVersion: 70015, Services: 1, Nonce: 7, UserAgent: "/peer/", Relay: true}
	payload, err := v.Encode()
	if err != nil {
		t.Fatalf("encode version: %v", err)
	}
	if err := wire.WriteMessage(clientConn, cfg.Magic, wire.CmdVersion, payload); err != nil {
		t.Fatalf("write version: %v", err)
	}
	if err := wire.WriteMessage(clientConn, cfg.Magic, wire.CmdVerack, nil); err != nil {
		t.Fatalf("write verack: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for len(h.versions) == 0 || h.veracks == 0 {
		select {
		case <-deadline:
			t.Fatalf("handshake messages were not dispatched in time: versions=%d veracks=%d", len(h.versions), h.veracks)
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	_ = clientConn.Close()
	<-done
}
