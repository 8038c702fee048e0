package discovery

import (
	"net/netip"
	"testing"
	"time"
)

func addrN(n int) netip.AddrPort {
	return netip.AddrPortFrom(netip.AddrFrom4([4]byte{127, 0, 0, byte(n)}), 8333)
}

func TestBookAddAndLen(t *testing.T) {
	b := NewBook()
	b.Add(addrN(1), 1, time.Now())
	b.Add(addrN(2), 1, time.Now())
	if b.Len() != 2 {
		t.Fatalf("len = %d, want 2", b.Len())
	}
}

func TestBookAddRefreshesExistingEntryWithoutGrowing(t *testing.T) {
	b := NewBook()
	addr := addrN(1)
	b.Add(addr, 1, time.Unix(100, 0))
	b.Add(addr, 2, time.Unix(200, 0))
	if b.Len() != 1 {
		t.Fatalf("len = %d, want 1", b.Len())
	}
	entries := b.Entries()
	if entries[0].Services != 2 || entries[0].LastSeen.Unix() != 200 {
		t.Fatalf("entry not refreshed: %+v", entries[0])
	}
}

func TestBookDropsNewEntriesPastCap(t *testing.T) {
	b := NewBook()
	for i := 0; i < MaxBookEntries; i++ {
		b.Add(netip.AddrPortFrom(netip.AddrFrom4([4]byte{10, 0, byte(i >> 8), byte(i)}), 8333), 1, time.Now())
	}
	if b.Len() != MaxBookEntries {
		t.Fatalf("len = %d, want %d", b.Len(), MaxBookEntries)
	}
	b.Add(addrN(1), 1, time.Now())
	if b.Len() != MaxBookEntries {
		t.Fatalf("book must silently reject entries past the cap, len = %d", b.Len())
	}
}

func TestBookRemove(t *testing.T) {
	b := NewBook()
	addr := addrN(1)
	b.Add(addr, 1, time.Now())
	b.Remove(addr)
	if b.Len() != 0 {
		t.Fatalf("len = %d, want 0", b.Len())
	}
}

func TestBookRandomOnEmptyReturnsFalse(t *testing.T) {
	b := NewBook()
	if _, ok := b.Random(); ok {
		t.Fatalf("Random on empty book must return false")
	}
}

func TestBookRandomReturnsAMember(t *testing.T) {
	b := NewBook()
	b.Add(addrN(1), 1, time.Now())
	b.Add(addrN(2), 1, time.Now())
	e, ok := b.Random()
	if !ok {
		t.Fatalf("Random must find an entry")
	}
	if e.Addr != addrN(1) && e.Addr != addrN(2) {
		t.Fatalf("Random returned unexpected entry: %+v", e)
	}
}
