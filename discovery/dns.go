package discovery

import (
	"context"
	"net"
	"net/netip"
)

// DNSSeedSource resolves a coin's chaincfg.Params.DNSSeeds hostnames,
// the Go-native replacement for pycoind's util/bootstrap.py DNSSeeder
// (which fired one lookup goroutine per configured seed and collected
// whatever addresses resolved). Resolver is swappable for tests; a nil
// Resolver uses net.DefaultResolver.
type DNSSeedSource struct {
	Hostnames []string
	Port      uint16
	Resolver  *net.Resolver
}

// Seeds resolves every configured hostname concurrently and returns
// the union of addresses found. A hostname that fails to resolve is
// skipped rather than failing the whole call — exactly bootstrap.py's
// "except Exception: pass" per-seed swallow, since one bad seed must
// not starve discovery of the others.
func (d DNSSeedSource) Seeds(ctx context.Context) ([]netip.AddrPort, error) {
	resolver := d.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	type result struct {
		addrs []netip.AddrPort
	}
	results := make(chan result, len(d.Hostnames))
	for _, host := range d.Hostnames {
		host := host
		go func() {
			ips, err := resolver.LookupIP(ctx, "ip4", host)
			if err != nil {
				results <- result{}
				return
			}
			out := make([]netip.AddrPort, 0, len(ips))
			for _, ip := range ips {
				if addr, ok := netip.AddrFromSlice(ip.To4()); ok {
					out = append(out, netip.AddrPortFrom(addr, d.Port))
				}
			}
			results <- result{addrs: out}
		}()
	}

	var found []netip.AddrPort
	for range d.Hostnames {
		select {
		case r := <-results:
			found = append(found, r.addrs...)
		case <-ctx.Done():
			return found, ctx.Err()
		}
	}
	return found, nil
}
