package node

import "sync"

// mempoolRing is a capped, FIFO-evicting set of transaction ids
// (spec.md §5: "the mempool at 30,000"). It exists purely to suppress
// re-relaying a transaction this node has already seen; no spend
// tracking or fee policy is in scope (spec.md §4.1 treats mempool
// admission as external to the validating core).
type mempoolRing struct {
	mu    sync.Mutex
	cap   int
	order []([32]byte)
	seen  map[[32]byte]struct{}
}

func newMempoolRing(capacity int) *mempoolRing {
	return &mempoolRing{
		cap:  capacity,
		seen: make(map[[32]byte]struct{}),
	}
}

// Add records txid, evicting the oldest entry first if the ring is
// full. Returns true if txid was not already present.
func (m *mempoolRing) Add(txid [32]byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[txid]; ok {
		return false
	}
	if len(m.order) >= m.cap {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.seen, oldest)
	}
	m.order = append(m.order, txid)
	m.seen[txid] = struct{}{}
	return true
}

// Has reports whether txid has already been recorded.
func (m *mempoolRing) Has(txid [32]byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.seen[txid]
	return ok
}

// Len reports the current entry count.
func (m *mempoolRing) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}
