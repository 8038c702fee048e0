package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/netip"
	"os"
	"time"
)

// persistedEntry is the on-disk JSON shape of one Book row. Field
// names are kept deliberately plain (not the Go-idiomatic struct
// field names) since this file is meant to be hand-inspectable,
// matching the spirit of pycoind/util/bootstrap.py's persisted peer
// list.
type persistedEntry struct {
	IP       string `json:"ip"`
	Port     uint16 `json:"port"`
	LastSeen int64  `json:"last_seen"`
	Services uint64 `json:"services"`
}

// PersistedSource reads the node's own previously-saved address book
// off disk, supplementing DNS seeds with peers this node has already
// met — the persisted half of pycoind's bootstrap.py, which combined
// fresh DNS lookups with addresses learned from earlier runs.
type PersistedSource struct {
	Path string
}

// Seeds loads Path and returns every address recorded in it. A missing
// file yields an empty, error-free result: there is simply nothing
// persisted yet on a fresh data directory.
func (p PersistedSource) Seeds(ctx context.Context) ([]netip.AddrPort, error) {
	book, err := LoadBook(p.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	entries := book.Entries()
	out := make([]netip.AddrPort, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Addr)
	}
	return out, nil
}

// LoadBook reads path's JSON array of persisted entries into a fresh
// Book.
func LoadBook(path string) (*Book, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []persistedEntry
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("discovery: decode address book %s: %w", path, err)
	}
	book := NewBook()
	for _, row := range rows {
		ip, err := netip.ParseAddr(row.IP)
		if err != nil {
			continue
		}
		book.Add(netip.AddrPortFrom(ip, row.Port), row.Services, time.Unix(row.LastSeen, 0))
	}
	return book, nil
}

// SaveBook writes book's current contents to path as a JSON array,
// truncating whatever was there before. Called by cmd/fullnoded on a
// clean shutdown so PersistedSource has something to read on the next
// run.
func SaveBook(path string, book *Book) error {
	entries := book.Entries()
	rows := make([]persistedEntry, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, persistedEntry{
			IP:       e.Addr.Addr().String(),
			Port:     e.Addr.Port(),
			LastSeen: e.LastSeen.Unix(),
			Services: e.Services,
		})
	}
	raw, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
