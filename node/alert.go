package node

import (
	"sync"

	"github.com/coreward/fullnode/cryptoutil"
	"github.com/coreward/fullnode/wire"
)

// alertArchive holds every alert whose signature verified, capped at
// an implementation-chosen size (spec.md §5: "alert archive at an
// implementation-chosen cap").
const maxAlertArchive = 256

type alertStore struct {
	mu      sync.Mutex
	entries []*wire.AlertPayload
}

// verifyAlertSignature checks a's signature against pubKey using the
// same secp256k1 verification cryptoutil already provides for script
// signature checks (spec.md §4.7: "verify signature with the coin's
// ... alert key[s]").
func verifyAlertSignature(a *wire.AlertPayload, pubKey []byte) bool {
	if len(pubKey) == 0 {
		return false
	}
	digest := cryptoutil.Sha256d(a.Payload)
	return cryptoutil.VerifySignature(pubKey, a.Signature, digest)
}

// archiveAlert records a verified alert, evicting the oldest entry
// once the archive is full.
func (s *Server) archiveAlert(a *wire.AlertPayload) {
	s.alerts.mu.Lock()
	defer s.alerts.mu.Unlock()
	if len(s.alerts.entries) >= maxAlertArchive {
		s.alerts.entries = s.alerts.entries[1:]
	}
	s.alerts.entries = append(s.alerts.entries, a)
}

// Alerts returns a snapshot of the archived alerts.
func (s *Server) Alerts() []*wire.AlertPayload {
	s.alerts.mu.Lock()
	defer s.alerts.mu.Unlock()
	out := make([]*wire.AlertPayload, len(s.alerts.entries))
	copy(out, s.alerts.entries)
	return out
}
