// Package utxoset implements the UTXO engine (spec.md §4.5): a single
// bbolt bucket of currently-unspent outputs keyed by uock, advanced
// one block at a time from a persisted last_valid_block scalar.
package utxoset

import (
	"crypto/sha256"
	"encoding/binary"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketUnspent         = []byte("unspent")
	bucketMetadata        = []byte("metadata")
	metaKeyLastValidBlock = []byte("last_valid_block")
)

// Store is the UTXO set: one bbolt bucket of unspent (uock ->
// addressHint) rows plus a last_valid_block scalar.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the UTXO set at path, seeding last_valid_block
// to genesisBlockID the first time it is created (spec.md §4.5: "a
// single scalar last_valid_block = blockid, initially 1, the genesis
// blockid").
func Open(path string, genesisBlockID uint32) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketUnspent); err != nil {
			return err
		}
		meta, err := tx.CreateBucketIfNotExists(bucketMetadata)
		if err != nil {
			return err
		}
		if meta.Get(metaKeyLastValidBlock) == nil {
			return putU32(meta, metaKeyLastValidBlock, genesisBlockID)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying bbolt handle.
func (s *Store) Close() error { return s.db.Close() }

// LastValidBlock returns the blockid of the most recently applied
// block.
func (s *Store) LastValidBlock() (uint32, error) {
	var id uint32
	err := s.db.View(func(tx *bolt.Tx) error {
		id = getU32(tx.Bucket(bucketMetadata), metaKeyLastValidBlock)
		return nil
	})
	return id, err
}

// Contains reports whether uock is currently unspent.
func (s *Store) Contains(uock uint64) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucketUnspent).Get(uockKey(uock)) != nil
		return nil
	})
	return found, err
}

func uockKey(uock uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uock)
	return b[:]
}

func addressHintBytes(hint uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], hint)
	return b[:]
}

func decodeAddressHint(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

func putU32(b *bolt.Bucket, key []byte, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return b.Put(key, buf[:])
}

func getU32(b *bolt.Bucket, key []byte) uint32 {
	v := b.Get(key)
	if v == nil {
		return 0
	}
	return binary.BigEndian.Uint32(v)
}

// Uock computes the composite key (txck<<20)|outputIndex (spec.md
// §3's Glossary "uock").
func Uock(txck uint64, outputIndex uint32) uint64 {
	return txck<<20 | uint64(outputIndex&0xfffff)
}

// AddressHint derives the 47-bit, non-authoritative accelerator stored
// alongside a UTXO row, the same truncated-hash idiom as txindex's
// txid_hint (spec.md Glossary "Hint"), applied to the output's
// pk_script instead of a txid.
func AddressHint(pkScript []byte) uint64 {
	h := sha256.Sum256(pkScript)
	return binary.BigEndian.Uint64(h[:8]) & 0x7fff_ffff_ffff
}
