package blockchain

import (
	"encoding/binary"

	bolt "go.etcd.io/bbolt"
)

// BlockLocatorHashes implements spec.md §4.3's block_locator_hashes:
// the top 10 main-chain blocks, then stepping down by geometric
// intervals (1, 2, 4, 8, ...) until height 0, always ending with the
// genesis hash.
func (s *Store) BlockLocatorHashes() ([][32]byte, error) {
	var out [][32]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		tipBytes := tx.Bucket(bucketMetadata).Get(metaKeyTipID)
		if tipBytes == nil {
			return storeErr(ErrNotFound, "store not initialized")
		}
		tip, ok, err := getBlock(tx, binary.BigEndian.Uint32(tipBytes))
		if err != nil {
			return err
		}
		if !ok {
			return storeErr(ErrNotFound, "tip missing")
		}

		height := tip.Height
		step := int32(1)
		dense := 0
		for height >= 0 {
			id := tx.Bucket(bucketByHeightMC).Get(heightKey(height))
			if id == nil {
				return storeErr(ErrNotFound, "mainchain height gap")
			}
			b, ok, err := getBlock(tx, binary.BigEndian.Uint32(id))
			if err != nil {
				return err
			}
			if !ok {
				return storeErr(ErrNotFound, "mainchain block missing")
			}
			out = append(out, b.BlockHash())

			if height == 0 {
				break
			}
			dense++
			if dense < 10 {
				height--
			} else {
				step *= 2
				if step > height {
					height = 0
				} else {
					height -= step
				}
			}
		}
		return nil
	})
	return out, err
}

// LocateBlocks implements spec.md §4.3's locate_blocks: the first
// locator hash that identifies a main-chain block anchors the walk;
// returns up to count main-chain successors in height order, stopping
// early at hashStop.
func (s *Store) LocateBlocks(locator [][32]byte, count int, hashStop [32]byte) ([][32]byte, error) {
	var out [][32]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		var anchor *StoredBlock
		for _, h := range locator {
			id, ok := blockIDByHash(tx, h)
			if !ok {
				continue
			}
			b, ok, err := getBlock(tx, id)
			if err != nil {
				return err
			}
			if ok && b.MainChain {
				anchor = &b
				break
			}
		}
		if anchor == nil {
			return nil
		}

		height := anchor.Height + 1
		for len(out) < count {
			idBytes := tx.Bucket(bucketByHeightMC).Get(heightKey(height))
			if idBytes == nil {
				break
			}
			b, ok, err := getBlock(tx, binary.BigEndian.Uint32(idBytes))
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			hash := b.BlockHash()
			out = append(out, hash)
			if hash == hashStop {
				break
			}
			height++
		}
		return nil
	})
	return out, err
}
