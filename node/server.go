// Package node implements the orchestrator (spec.md §4.7): the peer
// pool, address book, sync cursors, mempool, and the full on_* handler
// set that applies protocol effects against C4/C5/C6. It is the only
// package that wires blockchain, txindex, utxoset, p2p, and discovery
// together; none of those packages import it.
package node

import (
	"net/netip"
	"sync"
	"time"

	"github.com/coreward/fullnode/blockchain"
	"github.com/coreward/fullnode/chaincfg"
	"github.com/coreward/fullnode/discovery"
	"github.com/coreward/fullnode/p2p"
	"github.com/coreward/fullnode/txindex"
	"github.com/coreward/fullnode/utxoset"
	"go.uber.org/zap"
)

// Resource bounds from spec.md §4.7/§5.
const (
	MaxIncompleteBlocks   = 50_000
	MaxIncompleteInFlight = 10_000
	MaxMempool            = 30_000
	ReRequestFloor        = 5 * time.Minute
	GetHeadersCadence     = 30 * time.Second
	SmallAddrBook         = 50
	HeartbeatInterval     = 10 * time.Second
	MaxDialAttempts       = 5
	// DiscoveryBias is spec.md §4.7 step 1's "~1 in 6 dice roll biases
	// toward discovery even when the book has entries."
	DiscoveryBias = 6
)

// PeerSession is everything the orchestrator tracks about one
// connection beyond what p2p.Peer itself holds.
type PeerSession struct {
	Peer           *p2p.Peer
	RemoteAddr     netip.AddrPort
	LastGetHeaders time.Time
}

type incompleteEntry struct {
	Hash          [32]byte
	LastRequested time.Time
}

// Server is the orchestrator: one instance per running node.
type Server struct {
	mu sync.Mutex

	cfg  Config
	coin chaincfg.Params
	log  *zap.Logger

	Chain *blockchain.Store
	Txs   *txindex.Store
	Utxo  *utxoset.Store

	Book      *discovery.Book
	Discovery discovery.Source

	peers map[string]*PeerSession

	incomplete []incompleteEntry
	mempool    *mempoolRing
	alerts     alertStore
	relay      *relayThrottle

	externalIPVotes map[netip.Addr]int
	localAddr       netip.AddrPort

	lastGetHeaders time.Time
}

// NewServer wires the stores, discovery source, and logger into a
// fresh, peer-less orchestrator.
func NewServer(cfg Config, coin chaincfg.Params, chain *blockchain.Store, txs *txindex.Store, utxo *utxoset.Store, disc discovery.Source, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg:             cfg,
		coin:            coin,
		log:             log,
		Chain:           chain,
		Txs:             txs,
		Utxo:            utxo,
		Book:            discovery.NewBook(),
		Discovery:       disc,
		peers:           make(map[string]*PeerSession),
		mempool:         newMempoolRing(MaxMempool),
		relay:           newRelayThrottle(),
		externalIPVotes: make(map[netip.Addr]int),
	}
}

// PeerCount returns the current number of tracked connections.
func (s *Server) PeerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers)
}

// addPeer registers a session under key (conventionally the remote
// address string). Callers must already be holding no lock of their
// own on entry; addPeer takes s.mu itself.
func (s *Server) addPeer(key string, session *PeerSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[key] = session
}

// removePeer drops a session, e.g. once its Run loop returns.
func (s *Server) removePeer(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.peers, key)
}

// eachPeer calls fn for every currently tracked session. fn must not
// call back into Server methods that take s.mu.
func (s *Server) eachPeer(fn func(key string, session *PeerSession)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, session := range s.peers {
		fn(key, session)
	}
}

// readyPeers returns sessions whose handshake has completed.
func (s *Server) readyPeers() []*PeerSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*PeerSession, 0, len(s.peers))
	for _, session := range s.peers {
		if session.Peer.Ready() {
			out = append(out, session)
		}
	}
	return out
}

// peerConfig builds the PeerConfig a freshly dialed or accepted
// connection should use, stamping in our current chain height.
func (s *Server) peerConfig() p2p.PeerConfig {
	var height uint32
	if tip, err := s.Chain.Tip(); err == nil {
		height = uint32(tip.Height)
	}
	return p2p.PeerConfig{
		Magic:           s.coin.Magic,
		Services:        s.cfg.Services,
		ProtocolVersion: s.coin.ProtocolVersion,
		UserAgent:       s.cfg.UserAgent,
		OurHeight:       height,
	}
}
