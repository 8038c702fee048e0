package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleTx() *Transaction {
	return &Transaction{
		Version: 1,
		Inputs: []TxIn{{
			PrevOut:         OutPoint{PrevTxid: [32]byte{1, 2, 3}, Index: 0},
			SignatureScript: []byte{0x01, 0xaa},
			Sequence:        0xffffffff,
		}},
		Outputs: []TxOut{{
			Value:    5000000000,
			PkScript: []byte{0x76, 0xa9, 0x14},
		}},
		LockTime: 0,
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	tx := sampleTx()
	enc := tx.Encode()

	got, n, err := DecodeTransaction(enc)
	require.NoError(t, err)
	require.Equal(t, len(enc), n)
	require.Equal(t, tx.Version, got.Version)
	require.Equal(t, tx.Inputs, got.Inputs)
	require.Equal(t, tx.Outputs, got.Outputs)
	require.Equal(t, tx.LockTime, got.LockTime)
}

func TestTxidDeterministic(t *testing.T) {
	tx := sampleTx()
	a := tx.Txid()
	b := tx.Txid()
	require.Equal(t, a, b)

	tx.LockTime = 1
	c := tx.Txid()
	require.NotEqual(t, a, c)
}

func TestDecodeTransactionRejectsZeroInputsOutputs(t *testing.T) {
	tx := sampleTx()
	tx.Inputs = nil
	enc := tx.Encode()
	_, _, err := DecodeTransaction(enc)
	require.Error(t, err)

	tx = sampleTx()
	tx.Outputs = nil
	_, _, err = DecodeTransaction(tx.Encode())
	require.Error(t, err)
}

func TestIsCoinbase(t *testing.T) {
	cb := &Transaction{
		Version: 1,
		Inputs: []TxIn{{
			PrevOut:         OutPoint{Index: 0xffffffff},
			SignatureScript: []byte{0x04, 0xff, 0xff, 0x00, 0x1d},
			Sequence:        0xffffffff,
		}},
		Outputs: []TxOut{{Value: 5000000000, PkScript: []byte{0x51}}},
	}
	require.True(t, cb.IsCoinbase())
	require.False(t, sampleTx().IsCoinbase())
}
