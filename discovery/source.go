// Package discovery supplies candidate peer addresses from outside
// the running node: DNS seed lookups and a persisted address file.
// spec.md treats DNS seed lookup as an abstract peer-discovery source
// the orchestrator consults, not core protocol logic — this package is
// the seam node.Server dials through instead of calling net.Resolver
// or the filesystem directly.
package discovery

import (
	"context"
	"net/netip"
)

// Source yields candidate peer addresses. Implementations make no
// guarantee of freshness or liveness — callers dial and let the normal
// handshake/ban-score machinery reject dead or hostile entries.
type Source interface {
	Seeds(ctx context.Context) ([]netip.AddrPort, error)
}
