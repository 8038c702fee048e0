package utxoset

import (
	"github.com/coreward/fullnode/blockchain"
	"github.com/coreward/fullnode/chaincfg"
	"github.com/coreward/fullnode/txscript"
	"github.com/coreward/fullnode/wire"
	bolt "go.etcd.io/bbolt"
)

// TxLookup is the subset of txindex.Store's behavior Update needs to
// resolve an input's previous output, expressed as an interface so
// utxoset never has to import txindex's concrete type directly.
type TxLookup interface {
	LookupWithTxck(txid [32]byte) (*wire.Transaction, uint64, bool, error)
}

// resolvedOutput is a previous output plus the composite key its own
// UTXO row was filed under when its containing block was applied.
type resolvedOutput struct {
	Uock   uint64
	Output wire.TxOut
}

// Update implements spec.md §4.5's update: admits block only if it
// extends last_valid_block by exactly one, verifies every non-coinbase
// input's script against its resolved previous output, bounds the
// coinbase reward, and atomically swaps the consumed/created UTXO rows
// in.
func (s *Store) Update(block blockchain.StoredBlock, txns []wire.Transaction, lookup TxLookup, subsidy chaincfg.SubsidyFunc) (UndoRecord, error) {
	var undo UndoRecord
	lastValid, err := s.LastValidBlock()
	if err != nil {
		return undo, err
	}
	if block.PreviousBlockID != lastValid {
		return undo, setErr(ErrNonConsecutive, "block does not extend last_valid_block")
	}
	if len(txns) == 0 || !txns[0].IsCoinbase() {
		return undo, setErr(ErrMissingCoinbase, "block's first transaction is not a coinbase")
	}

	type resolved struct {
		txn  *wire.Transaction
		txck uint64
	}
	resolvedCache := make(map[[32]byte]resolved)
	resolveTxn := func(txid [32]byte) (*wire.Transaction, uint64, error) {
		if r, ok := resolvedCache[txid]; ok {
			return r.txn, r.txck, nil
		}
		t, txck, found, err := lookup.LookupWithTxck(txid)
		if err != nil {
			return nil, 0, err
		}
		if !found {
			return nil, 0, setErr(ErrPrevOutNotFound, "previous output's transaction not found")
		}
		resolvedCache[txid] = resolved{txn: t, txck: txck}
		return t, txck, nil
	}

	var totalIn, totalOut int64
	var spent []UndoSpentEntry
	jobs := make([]verifyJob, 0, len(txns)-1)

	for i := 1; i < len(txns); i++ {
		txn := txns[i]
		for _, out := range txn.Outputs {
			totalOut += out.Value
		}

		inputs := make([]resolvedOutput, len(txn.Inputs))
		for inIdx, in := range txn.Inputs {
			prevTx, prevTxck, err := resolveTxn(in.PrevOut.PrevTxid)
			if err != nil {
				return undo, err
			}
			if int(in.PrevOut.Index) >= len(prevTx.Outputs) {
				return undo, setErr(ErrPrevOutNotFound, "previous output index out of range")
			}
			out := prevTx.Outputs[in.PrevOut.Index]
			totalIn += out.Value
			inputs[inIdx] = resolvedOutput{Uock: Uock(prevTxck, in.PrevOut.Index), Output: out}
		}

		txnCopy := txn
		inputsCopy := inputs
		jobs = append(jobs, verifyJob{
			index: i - 1,
			run: func() error {
				for inIdx, in := range txnCopy.Inputs {
					ctx := &txscript.SigContext{Tx: &txnCopy, InputIndex: inIdx}
					ok, err := txscript.Verify(in.SignatureScript, inputsCopy[inIdx].Output.PkScript, ctx)
					if err != nil {
						return err
					}
					if !ok {
						return setErr(ErrScriptVerifyFailed, "input script did not unlock previous output")
					}
				}
				return nil
			},
		})

		for _, in := range inputs {
			spent = append(spent, UndoSpentEntry{Uock: in.Uock, AddressHint: AddressHint(in.Output.PkScript)})
		}
	}

	if err := runVerifyPool(jobs); err != nil {
		return undo, err
	}

	fees := totalIn - totalOut
	var coinbaseOut int64
	for _, out := range txns[0].Outputs {
		coinbaseOut += out.Value
	}
	if coinbaseOut > subsidy(uint32(block.Height))+fees {
		return undo, setErr(ErrInvalidCoinbase, "coinbase output sum exceeds subsidy plus fees")
	}

	created := make([]uint64, 0, len(txns))
	type createdRow struct {
		Uock uint64
		Hint uint64
	}
	var createdRows []createdRow
	for txIdx := range txns {
		txck := uint64(block.BlockID)<<20 | uint64(txIdx&0xfffff)
		for outIdx, out := range txns[txIdx].Outputs {
			uock := Uock(txck, uint32(outIdx))
			created = append(created, uock)
			createdRows = append(createdRows, createdRow{Uock: uock, Hint: AddressHint(out.PkScript)})
		}
	}

	if err := s.db.Update(func(tx *bolt.Tx) error {
		unspent := tx.Bucket(bucketUnspent)
		for _, sp := range spent {
			if err := unspent.Delete(uockKey(sp.Uock)); err != nil {
				return err
			}
		}
		for _, row := range createdRows {
			if err := unspent.Put(uockKey(row.Uock), addressHintBytes(row.Hint)); err != nil {
				return err
			}
		}
		return putU32(tx.Bucket(bucketMetadata), metaKeyLastValidBlock, block.BlockID)
	}); err != nil {
		return undo, err
	}

	undo = UndoRecord{BlockID: block.BlockID, Spent: spent, Created: created}
	return undo, nil
}
