package discovery

import (
	"context"
	"testing"
)

func TestDNSSeedSourceWithNoHostnamesReturnsEmpty(t *testing.T) {
	src := DNSSeedSource{Port: 8333}
	addrs, err := src.Seeds(context.Background())
	if err != nil {
		t.Fatalf("Seeds: %v", err)
	}
	if len(addrs) != 0 {
		t.Fatalf("addrs = %+v, want empty", addrs)
	}
}
