package utxoset

import (
	"path/filepath"
	"testing"

	"github.com/coreward/fullnode/blockchain"
	"github.com/coreward/fullnode/chaincfg"
	"github.com/coreward/fullnode/wire"
	"github.com/stretchr/testify/require"
)

// fakeLookup is a minimal in-memory stand-in for txindex.Store, good
// enough to satisfy TxLookup without spinning up partitioned bbolt
// files.
type fakeLookup struct {
	byTxid map[[32]byte]*wire.Transaction
	txck   map[[32]byte]uint64
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{byTxid: make(map[[32]byte]*wire.Transaction), txck: make(map[[32]byte]uint64)}
}

func (f *fakeLookup) put(blockID uint32, txnIndex int, txn wire.Transaction) wire.Transaction {
	txid := txn.Txid()
	f.byTxid[txid] = &txn
	f.txck[txid] = uint64(blockID)<<20 | uint64(txnIndex)
	return txn
}

func (f *fakeLookup) LookupWithTxck(txid [32]byte) (*wire.Transaction, uint64, bool, error) {
	t, ok := f.byTxid[txid]
	if !ok {
		return nil, 0, false, nil
	}
	return t, f.txck[txid], true, nil
}

func newTestSet(t *testing.T, genesisBlockID uint32) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "utxo.db")
	s, err := Open(path, genesisBlockID)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func trueScript() []byte { return []byte{0x51} } // OP_1, trivially satisfies OP_1 pub scripts

func coinbaseTxn(value int64) wire.Transaction {
	return wire.Transaction{
		Version: 1,
		Inputs: []wire.TxIn{{
			PrevOut:         wire.OutPoint{Index: 0xffffffff},
			SignatureScript: []byte{0x00},
			Sequence:        0xffffffff,
		}},
		Outputs:  []wire.TxOut{{Value: value, PkScript: trueScript()}},
		LockTime: 0,
	}
}

func TestUpdateRejectsNonConsecutiveBlock(t *testing.T) {
	s := newTestSet(t, 1)
	lookup := newFakeLookup()

	block := blockchain.StoredBlock{BlockID: 5, PreviousBlockID: 4, Height: 4}
	_, err := s.Update(block, []wire.Transaction{coinbaseTxn(50_0000_0000)}, lookup, chaincfg.HalvingSubsidy(50_0000_0000, 210000))
	require.Error(t, err)
	var serr *SetError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, ErrNonConsecutive, serr.Code)
}

func TestUpdateAppliesSimpleBlockAndCreatesUtxos(t *testing.T) {
	s := newTestSet(t, 1)
	lookup := newFakeLookup()
	subsidy := chaincfg.HalvingSubsidy(50_0000_0000, 210000)

	cb := coinbaseTxn(subsidy(1))
	block := blockchain.StoredBlock{BlockID: 2, PreviousBlockID: 1, Height: 1}

	undo, err := s.Update(block, []wire.Transaction{cb}, lookup, subsidy)
	require.NoError(t, err)
	require.Empty(t, undo.Spent)
	require.Len(t, undo.Created, 1)

	uock := Uock(uint64(block.BlockID)<<20, 0)
	ok, err := s.Contains(uock)
	require.NoError(t, err)
	require.True(t, ok)

	last, err := s.LastValidBlock()
	require.NoError(t, err)
	require.Equal(t, block.BlockID, last)
}

func TestUpdateSpendsPreviousOutputAndVerifiesScript(t *testing.T) {
	s := newTestSet(t, 1)
	lookup := newFakeLookup()
	subsidy := chaincfg.HalvingSubsidy(50_0000_0000, 210000)

	cb := coinbaseTxn(subsidy(1))
	prev := lookup.put(2, 0, cb)

	block2 := blockchain.StoredBlock{BlockID: 2, PreviousBlockID: 1, Height: 1}
	_, err := s.Update(block2, []wire.Transaction{cb}, lookup, subsidy)
	require.NoError(t, err)

	spendCoinbase := coinbaseTxn(subsidy(2))
	spend := wire.Transaction{
		Version: 1,
		Inputs: []wire.TxIn{{
			PrevOut:         wire.OutPoint{PrevTxid: prev.Txid(), Index: 0},
			SignatureScript: []byte{}, // satisfies trueScript's OP_1 pub script alone
			Sequence:        0xffffffff,
		}},
		Outputs:  []wire.TxOut{{Value: prev.Outputs[0].Value, PkScript: trueScript()}},
		LockTime: 0,
	}

	block3 := blockchain.StoredBlock{BlockID: 3, PreviousBlockID: 2, Height: 2}
	undo, err := s.Update(block3, []wire.Transaction{spendCoinbase, spend}, lookup, subsidy)
	require.NoError(t, err)
	require.Len(t, undo.Spent, 1)

	prevUock := Uock(uint64(2)<<20, 0)
	ok, err := s.Contains(prevUock)
	require.NoError(t, err)
	require.False(t, ok, "spent output must be removed")

	newUock := Uock(uint64(3)<<20|1, 0)
	ok, err = s.Contains(newUock)
	require.NoError(t, err)
	require.True(t, ok, "spending transaction's own output must be created")
}

func TestUpdateRejectsCoinbaseOverspend(t *testing.T) {
	s := newTestSet(t, 1)
	lookup := newFakeLookup()
	subsidy := chaincfg.HalvingSubsidy(50_0000_0000, 210000)

	cb := coinbaseTxn(subsidy(1) + 1)
	block := blockchain.StoredBlock{BlockID: 2, PreviousBlockID: 1, Height: 1}

	_, err := s.Update(block, []wire.Transaction{cb}, lookup, subsidy)
	require.Error(t, err)
	var serr *SetError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, ErrInvalidCoinbase, serr.Code)
}

func TestUpdateRejectsUnresolvablePrevOut(t *testing.T) {
	s := newTestSet(t, 1)
	lookup := newFakeLookup()
	subsidy := chaincfg.HalvingSubsidy(50_0000_0000, 210000)

	cb := coinbaseTxn(subsidy(1))
	spend := wire.Transaction{
		Version: 1,
		Inputs: []wire.TxIn{{
			PrevOut:         wire.OutPoint{PrevTxid: [32]byte{0xaa}, Index: 0},
			SignatureScript: []byte{},
			Sequence:        0xffffffff,
		}},
		Outputs:  []wire.TxOut{{Value: 1, PkScript: trueScript()}},
		LockTime: 0,
	}

	block := blockchain.StoredBlock{BlockID: 2, PreviousBlockID: 1, Height: 1}
	_, err := s.Update(block, []wire.Transaction{cb, spend}, lookup, subsidy)
	require.Error(t, err)
	var serr *SetError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, ErrPrevOutNotFound, serr.Code)
}
