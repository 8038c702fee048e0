package blockchain

import bolt "go.etcd.io/bbolt"

// IncompleteBlocks implements spec.md §4.3's incomplete_blocks: the
// work queue for body fetching. Returns up to max main-chain blocks
// with txn_count == 0, in blockid order, starting at the first
// blockid >= from.
func (s *Store) IncompleteBlocks(from uint32, max int) ([]StoredBlock, error) {
	var out []StoredBlock
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketIndex).Cursor()
		for k, v := c.Seek(blockIDKey(from)); k != nil && len(out) < max; k, v = c.Next() {
			meta, err := decodeMeta(v)
			if err != nil {
				return err
			}
			if meta.BlockID == PreGenesisBlockID || !meta.MainChain || meta.TxnCount != 0 {
				continue
			}
			b, ok, err := getBlock(tx, meta.BlockID)
			if err != nil {
				return err
			}
			if ok {
				out = append(out, b)
			}
		}
		return nil
	})
	return out, err
}
