package blockchain

import (
	"encoding/binary"

	"github.com/coreward/fullnode/chaincfg"
	"github.com/coreward/fullnode/wire"
	bolt "go.etcd.io/bbolt"
)

// AddHeader implements spec.md §4.3's add_header: PoW check, orphan
// rejection, and — if the new block extends a side chain past the
// current tip — the reorg that walks both chains to their common
// ancestor and flips mainchain bools in one write transaction.
// Grounded on the teacher's node/store.ReorgToTip fork-point walk,
// adapted from hash-keyed undo/apply bookkeeping to the simpler
// header-only mainchain-bool flip spec.md calls for.
func (s *Store) AddHeader(header wire.BlockHeader) (StoredBlock, error) {
	hash := header.BlockHash()

	var result StoredBlock
	err := s.db.Update(func(tx *bolt.Tx) error {
		if _, exists := blockIDByHash(tx, hash); exists {
			return storeErr(ErrDuplicate, "header already known")
		}

		target := chaincfg.CompactToBig(header.Bits)
		if !powMeetsTarget(hash, target) {
			return storeErr(ErrInvalidWork, "proof of work does not meet target")
		}

		parentID, ok := blockIDByHash(tx, header.PrevHash)
		if !ok {
			return storeErr(ErrOrphan, "parent header not found")
		}
		parent, ok, err := getBlock(tx, parentID)
		if err != nil {
			return err
		}
		if !ok {
			return storeErr(ErrOrphan, "parent header not found")
		}

		id, err := nextBlockID(tx)
		if err != nil {
			return err
		}

		newHeight := parent.Height + 1
		tipID, err := blockIDFromTipKey(tx)
		if err != nil {
			return err
		}
		tip, ok, err := getBlock(tx, tipID)
		if err != nil {
			return err
		}
		if !ok {
			return storeErr(ErrNotFound, "tip missing")
		}

		becomesMain := newHeight > tip.Height

		block := StoredBlock{
			Header:          header,
			BlockID:         id,
			PreviousBlockID: parentID,
			Height:          newHeight,
			MainChain:       becomesMain,
		}

		if becomesMain && !parent.MainChain {
			if err := reorganize(tx, parentID, tip.BlockID); err != nil {
				return err
			}
		}

		if err := putBlock(tx, block); err != nil {
			return err
		}
		if err := setNextBlockID(tx, id+1); err != nil {
			return err
		}
		if becomesMain {
			if err := setTipBlockID(tx, id); err != nil {
				return err
			}
		}

		result = block
		return nil
	})
	return result, err
}

func blockIDFromTipKey(tx *bolt.Tx) (uint32, error) {
	v := tx.Bucket(bucketMetadata).Get(metaKeyTipID)
	if v == nil {
		return 0, storeErr(ErrNotFound, "store not initialized")
	}
	return binary.BigEndian.Uint32(v), nil
}

// reorganize walks from newTipParent up to the common ancestor with
// oldTip, marking that path mainchain, then walks from oldTip down to
// the same ancestor, marking that path not-mainchain.
func reorganize(tx *bolt.Tx, newSideID, oldTipID uint32) error {
	ancestor, err := findCommonAncestor(tx, newSideID, oldTipID)
	if err != nil {
		return err
	}

	for id := newSideID; id != ancestor; {
		b, ok, err := getBlock(tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return storeErr(ErrNotFound, "ancestor walk: missing block")
		}
		b.MainChain = true
		if err := putBlock(tx, b); err != nil {
			return err
		}
		id = b.PreviousBlockID
	}

	for id := oldTipID; id != ancestor; {
		b, ok, err := getBlock(tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return storeErr(ErrNotFound, "ancestor walk: missing block")
		}
		b.MainChain = false
		if err := putBlock(tx, b); err != nil {
			return err
		}
		id = b.PreviousBlockID
	}
	return nil
}

func findCommonAncestor(tx *bolt.Tx, a, b uint32) (uint32, error) {
	ba, ok, err := getBlock(tx, a)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, storeErr(ErrNotFound, "ancestor walk: missing block")
	}
	bb, ok, err := getBlock(tx, b)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, storeErr(ErrNotFound, "ancestor walk: missing block")
	}

	for ba.Height > bb.Height {
		a = ba.PreviousBlockID
		ba, ok, err = getBlock(tx, a)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, storeErr(ErrNotFound, "ancestor walk: missing block")
		}
	}
	for bb.Height > ba.Height {
		b = bb.PreviousBlockID
		bb, ok, err = getBlock(tx, b)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, storeErr(ErrNotFound, "ancestor walk: missing block")
		}
	}
	for a != b {
		a = ba.PreviousBlockID
		b = bb.PreviousBlockID
		ba, ok, err = getBlock(tx, a)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, storeErr(ErrNotFound, "ancestor walk: missing block")
		}
		bb, ok, err = getBlock(tx, b)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, storeErr(ErrNotFound, "ancestor walk: missing block")
		}
	}
	return a, nil
}

