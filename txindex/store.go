// Package txindex implements the partitioned transaction store
// (spec.md §4.4): transactions are sharded across bbolt files by a
// doubling partition level so no single file grows unbounded, with a
// primary txck key and a secondary txid_hint accelerator for lookup.
package txindex

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/coreward/fullnode/blockchain"
	"github.com/coreward/fullnode/wire"
	bolt "go.etcd.io/bbolt"
)

// TargetPartitionBytes is the default size a partition file may reach
// before the level doubles (spec.md §4.4's "default 1.75 GiB").
const TargetPartitionBytes int64 = 1.75 * 1024 * 1024 * 1024

// MinLevel is the lowest partition level lookup ever falls back to.
const MinLevel uint32 = 4

var (
	bucketPrimary   = []byte("txck")
	bucketSecondary = []byte("txid_hint")
)

// Store routes transaction reads/writes across a set of lazily-opened
// bbolt files named "<coin>-txns-<N>-<I>.db", grounded on the
// teacher's node/store.DB one-bucket-set-per-file convention, fanned
// out across many files instead of one.
type Store struct {
	dir  string
	coin string

	mu    sync.Mutex
	level uint32
	dbs   map[partitionKey]*bolt.DB
}

type partitionKey struct {
	Level uint32
	Index uint32
}

// Open prepares a Store rooted at dir for coin, starting at (or
// resuming) partition level startLevel (spec.md §4.4: a power of two,
// minimum 4).
func Open(dir, coin string, startLevel uint32) (*Store, error) {
	if startLevel < MinLevel {
		startLevel = MinLevel
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("txindex: mkdir %s: %w", dir, err)
	}
	return &Store{
		dir:   dir,
		coin:  coin,
		level: startLevel,
		dbs:   make(map[partitionKey]*bolt.DB),
	}, nil
}

// Close closes every partition file the Store has opened.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for k, db := range s.dbs {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.dbs, k)
	}
	return firstErr
}

func (s *Store) partitionPath(level, index uint32) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-txns-%03d-%03d.db", s.coin, level, index))
}

// openPartition returns the (possibly newly created) bbolt handle for
// (level, index), caching it for reuse.
func (s *Store) openPartition(level, index uint32) (*bolt.DB, error) {
	key := partitionKey{Level: level, Index: index}
	if db, ok := s.dbs[key]; ok {
		return db, nil
	}
	db, err := bolt.Open(s.partitionPath(level, index), 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("txindex: open partition %d/%d: %w", level, index, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketPrimary); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketSecondary)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.dbs[key] = db
	return db, nil
}

// existingPartition opens (but does not create) (level, index) if its
// file is already on disk, for lookup fallback through shrinking
// levels without fabricating empty partitions.
func (s *Store) existingPartition(level, index uint32) (*bolt.DB, bool, error) {
	key := partitionKey{Level: level, Index: index}
	if db, ok := s.dbs[key]; ok {
		return db, true, nil
	}
	path := s.partitionPath(level, index)
	if _, err := os.Stat(path); err != nil {
		return nil, false, nil
	}
	db, err := s.openPartition(level, index)
	return db, true, err
}

func partitionIndex(txid [32]byte, level uint32) uint32 {
	q := binary.BigEndian.Uint32(txid[:4])
	return q % level
}

func txidHint(txid [32]byte) uint64 {
	return binary.BigEndian.Uint64(txid[:8]) & 0x7fff_ffff_ffff
}

func txckKey(blockID uint32, txnIndex int) uint64 {
	return uint64(blockID)<<20 | uint64(uint32(txnIndex)&0xfffff)
}

func txckBytes(txck uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], txck)
	return b[:]
}

func hintKeyPrefix(hint uint64) []byte {
	var b [6]byte
	b[0] = byte(hint >> 40)
	b[1] = byte(hint >> 32)
	b[2] = byte(hint >> 24)
	b[3] = byte(hint >> 16)
	b[4] = byte(hint >> 8)
	b[5] = byte(hint)
	return b[:]
}

// Add implements spec.md §4.4's add: verifies the Merkle root of txns
// against block, then writes each transaction into its shard keyed by
// txck, skipping duplicates silently, promoting the partition level if
// the active file has grown past TargetPartitionBytes.
func (s *Store) Add(block blockchain.StoredBlock, txns []wire.Transaction) error {
	txids := make([][32]byte, len(txns))
	for i := range txns {
		txids[i] = txns[i].Txid()
	}
	if wire.MerkleRoot(txids) != block.Header.MerkleRoot {
		return indexErr(ErrMerkleMismatch, "transaction set does not match block merkle root")
	}

	s.mu.Lock()
	level := s.level
	s.mu.Unlock()

	touched := make(map[partitionKey]bool)
	for i, txid := range txids {
		idx := partitionIndex(txid, level)
		db, err := s.openPartition(level, idx)
		if err != nil {
			return err
		}
		txck := txckKey(block.BlockID, i)
		raw := txns[i].Encode()
		hint := txidHint(txid)

		if err := db.Update(func(tx *bolt.Tx) error {
			primary := tx.Bucket(bucketPrimary)
			key := txckBytes(txck)
			if primary.Get(key) != nil {
				return nil // duplicate txck: silently skipped per spec.md §4.4
			}
			if err := primary.Put(key, raw); err != nil {
				return err
			}
			secKey := append(hintKeyPrefix(hint), key...)
			return tx.Bucket(bucketSecondary).Put(secKey, nil)
		}); err != nil {
			return err
		}
		touched[partitionKey{Level: level, Index: idx}] = true
	}

	return s.maybePromoteLevel(touched)
}

func (s *Store) maybePromoteLevel(touched map[partitionKey]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range touched {
		if k.Level != s.level {
			continue
		}
		info, err := os.Stat(s.partitionPath(k.Level, k.Index))
		if err != nil {
			continue
		}
		if info.Size() > TargetPartitionBytes {
			s.level *= 2
			return nil
		}
	}
	return nil
}

// Lookup implements spec.md §4.4's lookup: hash txid's partition
// coordinate at the current level, then fall back through N/2, N/4,
// ..., down to MinLevel on miss.
func (s *Store) Lookup(txid [32]byte) (*wire.Transaction, bool, error) {
	txn, _, found, err := s.LookupWithTxck(txid)
	return txn, found, err
}

// LookupWithTxck is Lookup plus the matched transaction's txck, which
// utxoset needs to reconstruct the uock of an output being spent
// (spec.md §4.5 step 1).
func (s *Store) LookupWithTxck(txid [32]byte) (*wire.Transaction, uint64, bool, error) {
	s.mu.Lock()
	level := s.level
	s.mu.Unlock()

	for l := level; l >= MinLevel; l /= 2 {
		idx := partitionIndex(txid, l)
		db, ok, err := s.existingPartition(l, idx)
		if err != nil {
			return nil, 0, false, err
		}
		if ok {
			tx, txck, found, err := lookupInPartition(db, txid)
			if err != nil {
				return nil, 0, false, err
			}
			if found {
				return tx, txck, true, nil
			}
		}
		if l == MinLevel {
			break
		}
	}
	return nil, 0, false, nil
}

func lookupInPartition(db *bolt.DB, txid [32]byte) (*wire.Transaction, uint64, bool, error) {
	hint := txidHint(txid)
	prefix := hintKeyPrefix(hint)

	var found *wire.Transaction
	var foundTxck uint64
	err := db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketSecondary).Cursor()
		primary := tx.Bucket(bucketPrimary)
		for k, _ := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = c.Next() {
			txckBytes := k[len(prefix):]
			raw := primary.Get(txckBytes)
			if raw == nil {
				continue
			}
			parsed, _, err := wire.DecodeTransaction(raw)
			if err != nil {
				continue
			}
			if parsed.Txid() == txid {
				found = parsed
				foundTxck = binary.BigEndian.Uint64(txckBytes)
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, false, err
	}
	return found, foundTxck, found != nil, nil
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}
