// Package p2p implements one peer connection (spec.md §4.6): version
// handshake, the per-frame dispatch loop, liveness pings, and ban-score
// accounting. It never touches the block/transaction/UTXO stores
// directly — Handler is the seam node.Server implements to apply
// protocol effects, the same inversion the teacher's p2p.PeerHandler
// uses to keep p2p independent of consensus state.
package p2p

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"github.com/coreward/fullnode/wire"
)

const (
	// ReadBufferBytes is spec.md §4.6's "read BLOCK_SIZE (8 KiB)
	// chunks into a receive buffer" — the size of the bufio.Reader
	// wrapped around the connection.
	ReadBufferBytes = 8 * 1024

	// PingInterval and IdleCloseTimeout are spec.md §4.6's liveness
	// rule: ping after 30 minutes with no send, close after 3 hours
	// with no receive.
	PingInterval     = 30 * time.Minute
	IdleCloseTimeout = 3 * time.Hour

	// pollInterval bounds how long a single Read blocks so the
	// liveness timers and ctx cancellation get checked even when the
	// peer is silent.
	pollInterval = 30 * time.Second
)

// PeerConfig carries the fields every outgoing version message needs
// and the network magic framing uses.
type PeerConfig struct {
	Magic           uint32
	Services        uint64
	ProtocolVersion uint32
	UserAgent       string
	OurHeight       uint32
}

// Peer is one TCP conversation: the connection, its negotiated
// version, liveness bookkeeping, and ban score.
type Peer struct {
	Conn    net.Conn
	Inbound bool
	Config  PeerConfig

	Ban BanScore

	PeerVersion    *wire.VersionPayload
	VerackReceived bool
	VerackSent     bool

	LastRx, LastTx, LastPing time.Time
	InFlightBlocks           int

	reader *bufio.Reader
}

// NewPeer wraps conn for one conversation. inbound distinguishes a
// TCP-accepted connection from one this node dialed out.
func NewPeer(conn net.Conn, inbound bool, cfg PeerConfig) *Peer {
	return &Peer{
		Conn:    conn,
		Inbound: inbound,
		Config:  cfg,
		reader:  bufio.NewReaderSize(conn, ReadBufferBytes),
	}
}

// Ready reports whether both sides' verack have been exchanged.
func (p *Peer) Ready() bool { return p.VerackReceived && p.VerackSent }

func randomNonce() uint64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return binary.LittleEndian.Uint64(b[:])
}

// send writes one framed message and records LastTx.
func (p *Peer) send(command string, payload []byte) error {
	if err := wire.WriteMessage(p.Conn, p.Config.Magic, command, payload); err != nil {
		return err
	}
	p.LastTx = time.Now()
	return nil
}

// Send writes one framed message of the given command, for use by
// Handler implementations answering a request (getaddr, getheaders,
// getdata, and so on) outside the fixed Send* helpers below.
func (p *Peer) Send(command string, payload []byte) error {
	return p.send(command, payload)
}

// SendVersion transmits our version message (spec.md §4.6's opening
// move): protocol version, services, our view of addrRecv/addrFrom, a
// random anti-loopback nonce, user agent, and current height.
func (p *Peer) SendVersion(addrRecv, addrFrom wire.NetAddr) error {
	v := wire.VersionPayload{
		ProtocolVersion: p.Config.ProtocolVersion,
		Services:        p.Config.Services,
		Timestamp:       time.Now().Unix(),
		AddrRecv:        addrRecv,
		AddrFrom:        addrFrom,
		Nonce:           randomNonce(),
		UserAgent:       p.Config.UserAgent,
		StartHeight:     p.Config.OurHeight,
		Relay:           true,
	}
	payload, err := v.Encode()
	if err != nil {
		return err
	}
	return p.send(wire.CmdVersion, payload)
}

// SendVerack transmits an empty verack.
func (p *Peer) SendVerack() error {
	if err := p.send(wire.CmdVerack, nil); err != nil {
		return err
	}
	p.VerackSent = true
	return nil
}

// SendPing transmits a ping carrying a fresh random nonce.
func (p *Peer) SendPing() error {
	payload := wire.PingPongPayload{Nonce: randomNonce()}.Encode()
	if err := p.send(wire.CmdPing, payload); err != nil {
		return err
	}
	p.LastPing = time.Now()
	return nil
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

// Run is the per-frame read loop. It processes messages in arrival
// order (spec.md §5's ordering guarantee), dispatching each to h after
// wire-level checksum/command validation, and enforces the liveness
// and ban-score policy described in spec.md §4.6 — closing the
// connection when ctx is canceled, when the 3-hour receive-idle
// timeout elapses, or when the peer's ban score exceeds BanThreshold.
// Unlike the teacher's Handshake-then-Run split, version/verack are
// just two more commands dispatched through h: spec.md §4.6 says
// "commands received before the handshake completes are processed
// as-is."
func (p *Peer) Run(ctx context.Context, h Handler) error {
	if h == nil {
		return fmt.Errorf("p2p: peer: nil handler")
	}

	if ctx != nil {
		done := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				_ = p.Conn.Close()
			case <-done:
			}
		}()
		defer close(done)
	}

	now := time.Now()
	p.LastRx = now
	p.LastTx = now

	for {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		_ = p.Conn.SetReadDeadline(time.Now().Add(pollInterval))
		msg, rerr := wire.ReadMessage(p.reader, p.Config.Magic, wire.MaxPayloadBytes)
		if rerr != nil {
			if isTimeout(rerr.Err) {
				if err := p.checkLiveness(); err != nil {
					return err
				}
				continue
			}
			if rerr.BanScoreDelta > 0 {
				p.Ban.Add(rerr.BanScoreDelta)
			}
			if p.Ban.ShouldBan() {
				return fmt.Errorf("p2p: peer: banned (score=%d): %w", p.Ban.Score(), rerr.Err)
			}
			if rerr.Disconnect {
				return rerr
			}
			continue
		}

		p.LastRx = time.Now()
		if err := p.dispatch(msg, h); err != nil {
			return err
		}
		if p.Ban.ShouldBan() {
			return fmt.Errorf("p2p: peer: banned (score=%d)", p.Ban.Score())
		}
	}
}

func (p *Peer) checkLiveness() error {
	now := time.Now()
	if now.Sub(p.LastRx) >= IdleCloseTimeout {
		return fmt.Errorf("p2p: peer: idle close (no traffic for %s)", IdleCloseTimeout)
	}
	if now.Sub(p.LastTx) >= PingInterval {
		if err := p.SendPing(); err != nil {
			return err
		}
	}
	return nil
}

// dispatch decodes msg's payload per its command and calls the
// matching Handler method, folding decode failures and handler errors
// into ban-score penalties. Penalty sizes are this system's own choice
// (spec.md §4.6 only fixes the >5 threshold, not per-offense amounts):
// a bad decode is a minor protocol slip (+2); a handler-rejected block
// or header chain is a real validation failure and alone exceeds the
// threshold (+6).
func (p *Peer) dispatch(msg *wire.Message, h Handler) error {
	const (
		penaltyDecodeError = 2
		penaltyBadData     = 6
		penaltyIgnored     = 1
	)

	switch msg.Command {
	case wire.CmdVersion:
		v, err := wire.DecodeVersionPayload(msg.Payload)
		if err != nil {
			p.Ban.Add(penaltyDecodeError)
			return nil
		}
		p.PeerVersion = v
		return h.OnVersion(p, v)
	case wire.CmdVerack:
		p.VerackReceived = true
		return h.OnVerack(p)
	case wire.CmdAddr:
		a, err := wire.DecodeAddrPayload(msg.Payload)
		if err != nil {
			p.Ban.Add(penaltyDecodeError)
			return nil
		}
		return h.OnAddr(p, a.Addrs)
	case wire.CmdInv:
		v, err := wire.DecodeInvPayload(msg.Payload)
		if err != nil {
			p.Ban.Add(penaltyDecodeError)
			return nil
		}
		return h.OnInv(p, v.Inventory)
	case wire.CmdGetData:
		v, err := wire.DecodeGetDataPayload(msg.Payload)
		if err != nil {
			p.Ban.Add(penaltyDecodeError)
			return nil
		}
		if err := h.OnGetData(p, v.Inventory); err != nil {
			p.Ban.Add(penaltyIgnored)
		}
		return nil
	case wire.CmdNotFound:
		v, err := wire.DecodeNotFoundPayload(msg.Payload)
		if err != nil {
			p.Ban.Add(penaltyDecodeError)
			return nil
		}
		return h.OnNotFound(p, v.Inventory)
	case wire.CmdGetBlocks:
		v, err := wire.DecodeGetBlocksPayload(msg.Payload)
		if err != nil {
			p.Ban.Add(penaltyDecodeError)
			return nil
		}
		if err := h.OnGetBlocks(p, v); err != nil {
			p.Ban.Add(penaltyIgnored)
		}
		return nil
	case wire.CmdGetHeaders:
		v, err := wire.DecodeGetHeadersPayload(msg.Payload)
		if err != nil {
			p.Ban.Add(penaltyDecodeError)
			return nil
		}
		if err := h.OnGetHeaders(p, v); err != nil {
			p.Ban.Add(penaltyIgnored)
		}
		return nil
	case wire.CmdHeaders:
		v, err := wire.DecodeHeadersPayload(msg.Payload)
		if err != nil {
			p.Ban.Add(penaltyDecodeError)
			return nil
		}
		if err := h.OnHeaders(p, v); err != nil {
			p.Ban.Add(penaltyBadData)
		}
		return nil
	case wire.CmdBlock:
		if err := h.OnBlock(p, msg.Payload); err != nil {
			p.Ban.Add(penaltyBadData)
		}
		return nil
	case wire.CmdTx:
		if err := h.OnTx(p, msg.Payload); err != nil {
			p.Ban.Add(penaltyBadData)
		}
		return nil
	case wire.CmdGetAddr:
		return h.OnGetAddr(p)
	case wire.CmdMempool:
		return h.OnMempool(p)
	case wire.CmdPing, wire.CmdPong:
		pp, err := wire.DecodePingPongPayload(msg.Payload)
		if err != nil {
			p.Ban.Add(penaltyDecodeError)
			return nil
		}
		if msg.Command == wire.CmdPing {
			return h.OnPing(p, pp.Nonce)
		}
		return h.OnPong(p, pp.Nonce)
	case wire.CmdReject:
		r, err := wire.DecodeRejectPayload(msg.Payload)
		if err != nil {
			p.Ban.Add(penaltyDecodeError)
			return nil
		}
		return h.OnReject(p, r)
	case wire.CmdAlert:
		a, err := wire.DecodeAlertPayload(msg.Payload)
		if err != nil {
			p.Ban.Add(penaltyDecodeError)
			return nil
		}
		return h.OnAlert(p, a)
	default:
		// Unknown protocol commands are ignored, no ban (spec.md §5).
		return nil
	}
}
