package utxoset

import bolt "go.etcd.io/bbolt"

// UndoSpentEntry restores one UTXO row a block's application consumed.
type UndoSpentEntry struct {
	Uock        uint64
	AddressHint uint64
}

// UndoRecord captures the delta Update applied to the UTXO set for one
// block, grounded on the teacher's node/store.UndoRecord (Spent +
// Created lists) — spec.md §4.5 leaves Rollback as "a documented
// extension point"; this is the journal it would consume.
type UndoRecord struct {
	BlockID uint32
	Spent   []UndoSpentEntry
	Created []uint64
}

// Rollback reverses a block's Update: reinserts every spent row and
// deletes every row the block created, then rewinds last_valid_block
// to the block's parent. It is the minimal implementation of the
// rollback spec.md §4.5 leaves unspecified — callers orchestrating a
// reorg across blockchain, txindex and utxoset together are
// responsible for calling it in descending blockid order and for
// re-deriving block.PreviousBlockID from the block store.
func (s *Store) Rollback(undo UndoRecord, previousBlockID uint32) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		unspent := tx.Bucket(bucketUnspent)
		for _, created := range undo.Created {
			if err := unspent.Delete(uockKey(created)); err != nil {
				return err
			}
		}
		for _, spent := range undo.Spent {
			if err := unspent.Put(uockKey(spent.Uock), addressHintBytes(spent.AddressHint)); err != nil {
				return err
			}
		}
		return putU32(tx.Bucket(bucketMetadata), metaKeyLastValidBlock, previousBlockID)
	})
}
