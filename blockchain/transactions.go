package blockchain

import (
	"github.com/coreward/fullnode/wire"
	bolt "go.etcd.io/bbolt"
)

// TxIndexer is the subset of txindex.Store's behavior blockchain needs
// to bridge add_transactions to the transaction store (spec.md §4.3),
// expressed as an interface here so blockchain never imports txindex —
// txindex already depends on blockchain.StoredBlock, and the reverse
// dependency would cycle.
type TxIndexer interface {
	Add(block StoredBlock, txns []wire.Transaction) error
}

// AddTransactions implements spec.md §4.3's half of add_transactions:
// once C5 has verified the Merkle root and written every transaction
// into its shard, the block's txn_count is set in the block index so
// incomplete_blocks stops offering it for body fetching.
func (s *Store) AddTransactions(blockHash [32]byte, txns []wire.Transaction, idx TxIndexer) error {
	block, ok, err := s.GetByHash(blockHash)
	if err != nil {
		return err
	}
	if !ok {
		return storeErr(ErrNotFound, "header not known")
	}

	if err := idx.Add(block, txns); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		block.TxnCount = uint32(len(txns))
		return putBlock(tx, block)
	})
}
