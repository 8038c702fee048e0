package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveBookThenLoadBookRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peers.json")

	b := NewBook()
	b.Add(addrN(1), 7, time.Unix(1000, 0))
	b.Add(addrN(2), 9, time.Unix(2000, 0))

	if err := SaveBook(path, b); err != nil {
		t.Fatalf("SaveBook: %v", err)
	}

	loaded, err := LoadBook(path)
	if err != nil {
		t.Fatalf("LoadBook: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("loaded len = %d, want 2", loaded.Len())
	}
}

func TestPersistedSourceSeedsReturnsSavedAddresses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peers.json")
	b := NewBook()
	b.Add(addrN(1), 1, time.Now())
	if err := SaveBook(path, b); err != nil {
		t.Fatalf("SaveBook: %v", err)
	}

	src := PersistedSource{Path: path}
	addrs, err := src.Seeds(context.Background())
	if err != nil {
		t.Fatalf("Seeds: %v", err)
	}
	if len(addrs) != 1 || addrs[0] != addrN(1) {
		t.Fatalf("addrs = %+v, want [%v]", addrs, addrN(1))
	}
}

func TestPersistedSourceSeedsOnMissingFileReturnsEmpty(t *testing.T) {
	src := PersistedSource{Path: filepath.Join(t.TempDir(), "does-not-exist.json")}
	addrs, err := src.Seeds(context.Background())
	if err != nil {
		t.Fatalf("Seeds on missing file must not error, got %v", err)
	}
	if len(addrs) != 0 {
		t.Fatalf("addrs = %+v, want empty", addrs)
	}
}

func TestLoadBookSkipsUnparsableEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peers.json")
	if err := os.WriteFile(path, []byte(`[{"ip":"not-an-ip","port":8333,"last_seen":0,"services":0},{"ip":"127.0.0.1","port":8333,"last_seen":0,"services":0}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := LoadBook(path)
	if err != nil {
		t.Fatalf("LoadBook: %v", err)
	}
	if b.Len() != 1 {
		t.Fatalf("len = %d, want 1 (bad entry skipped)", b.Len())
	}
}
