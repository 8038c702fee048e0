package blockchain

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/coreward/fullnode/wire"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketHeaders     = []byte("headers")
	bucketIndex       = []byte("index")
	bucketByHash      = []byte("by_hash")
	bucketByHeightMC  = []byte("by_height_mainchain")
	bucketMetadata    = []byte("metadata")
	metaKeyNextID     = []byte("next_blockid")
	metaKeyTipID      = []byte("tip_blockid")
)

// Store wraps one bbolt database holding the block index, grounded on
// the teacher's node/store.DB: one file, one bucket set, Update/View
// closures per operation, no ORM layer.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if absent) the block-store file at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("blockchain: open bbolt: %w", err)
	}
	s := &Store{db: db}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketHeaders, bucketIndex, bucketByHash, bucketByHeightMC, bucketMetadata} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// InitGenesis seeds the pre-genesis sentinel (blockid 0, height -1) and
// the genesis block itself (blockid 1, height 0, mainchain) if the
// store is empty. It is a no-op if genesis is already present.
func (s *Store) InitGenesis(header wire.BlockHeader) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		idx := tx.Bucket(bucketIndex)
		if idx.Get(blockIDKey(GenesisBlockID)) != nil {
			return nil
		}

		sentinel := StoredBlock{BlockID: PreGenesisBlockID, PreviousBlockID: PreGenesisBlockID, Height: -1}
		if err := idx.Put(blockIDKey(PreGenesisBlockID), sentinel.encodeMeta()); err != nil {
			return err
		}

		genesis := StoredBlock{
			Header:          header,
			BlockID:         GenesisBlockID,
			PreviousBlockID: PreGenesisBlockID,
			Height:          0,
			MainChain:       true,
		}
		if err := putBlock(tx, genesis); err != nil {
			return err
		}
		if err := tx.Bucket(bucketMetadata).Put(metaKeyNextID, blockIDKey(GenesisBlockID+1)); err != nil {
			return err
		}
		return tx.Bucket(bucketMetadata).Put(metaKeyTipID, blockIDKey(GenesisBlockID))
	})
}

// putBlock writes header bytes, metadata, by_hash, and (if mainchain)
// by_height_mainchain in the already-open transaction tx.
func putBlock(tx *bolt.Tx, b StoredBlock) error {
	headerBytes := b.Header.Encode()
	if err := tx.Bucket(bucketHeaders).Put(blockIDKey(b.BlockID), headerBytes[:]); err != nil {
		return err
	}
	if err := tx.Bucket(bucketIndex).Put(blockIDKey(b.BlockID), b.encodeMeta()); err != nil {
		return err
	}
	hash := b.Header.BlockHash()
	if err := tx.Bucket(bucketByHash).Put(hash[:], blockIDKey(b.BlockID)); err != nil {
		return err
	}
	if b.MainChain {
		if err := tx.Bucket(bucketByHeightMC).Put(heightKey(b.Height), blockIDKey(b.BlockID)); err != nil {
			return err
		}
	}
	return nil
}

func getBlock(tx *bolt.Tx, id uint32) (StoredBlock, bool, error) {
	metaBytes := tx.Bucket(bucketIndex).Get(blockIDKey(id))
	if metaBytes == nil {
		return StoredBlock{}, false, nil
	}
	meta, err := decodeMeta(metaBytes)
	if err != nil {
		return StoredBlock{}, false, err
	}
	if id == PreGenesisBlockID {
		return meta, true, nil
	}
	headerBytes := tx.Bucket(bucketHeaders).Get(blockIDKey(id))
	if headerBytes == nil {
		return StoredBlock{}, false, storeErr(ErrNotFound, "header missing for indexed block")
	}
	header, err := wire.DecodeBlockHeader(headerBytes)
	if err != nil {
		return StoredBlock{}, false, err
	}
	meta.Header = header
	return meta, true, nil
}

func blockIDByHash(tx *bolt.Tx, hash [32]byte) (uint32, bool) {
	v := tx.Bucket(bucketByHash).Get(hash[:])
	if v == nil {
		return 0, false
	}
	return binary.BigEndian.Uint32(v), true
}

// GetByHash returns the stored block for blockhash, main- or side-chain.
func (s *Store) GetByHash(hash [32]byte) (StoredBlock, bool, error) {
	var out StoredBlock
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		id, found := blockIDByHash(tx, hash)
		if !found {
			return nil
		}
		b, found, err := getBlock(tx, id)
		if err != nil {
			return err
		}
		out, ok = b, found
		return nil
	})
	return out, ok, err
}

// GetByBlockID returns the stored block for a given blockid.
func (s *Store) GetByBlockID(id uint32) (StoredBlock, bool, error) {
	var out StoredBlock
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		b, found, err := getBlock(tx, id)
		out, ok = b, found
		return err
	})
	return out, ok, err
}

// Tip returns the current main-chain tip.
func (s *Store) Tip() (StoredBlock, error) {
	var out StoredBlock
	err := s.db.View(func(tx *bolt.Tx) error {
		tipBytes := tx.Bucket(bucketMetadata).Get(metaKeyTipID)
		if tipBytes == nil {
			return storeErr(ErrNotFound, "store not initialized")
		}
		b, ok, err := getBlock(tx, binary.BigEndian.Uint32(tipBytes))
		if err != nil {
			return err
		}
		if !ok {
			return storeErr(ErrNotFound, "tip block missing")
		}
		out = b
		return nil
	})
	return out, err
}

// MainChainContains reports whether hash identifies a block on the
// current main chain.
func (s *Store) MainChainContains(hash [32]byte) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		id, ok := blockIDByHash(tx, hash)
		if !ok {
			return nil
		}
		b, ok, err := getBlock(tx, id)
		if err != nil {
			return err
		}
		found = ok && b.MainChain
		return nil
	})
	return found, err
}

func nextBlockID(tx *bolt.Tx) (uint32, error) {
	v := tx.Bucket(bucketMetadata).Get(metaKeyNextID)
	if v == nil {
		return 0, storeErr(ErrNotFound, "store not initialized")
	}
	return binary.BigEndian.Uint32(v), nil
}

func setNextBlockID(tx *bolt.Tx, id uint32) error {
	return tx.Bucket(bucketMetadata).Put(metaKeyNextID, blockIDKey(id))
}

func setTipBlockID(tx *bolt.Tx, id uint32) error {
	return tx.Bucket(bucketMetadata).Put(metaKeyTipID, blockIDKey(id))
}
