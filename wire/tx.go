package wire

import (
	"encoding/binary"

	"github.com/coreward/fullnode/cryptoutil"
)

const (
	maxTxInputs  = 1_000_000
	maxTxOutputs = 1_000_000
)

// OutPoint names the output a TxIn spends: the spent transaction's id
// and the index of that output within it.
type OutPoint struct {
	PrevTxid [32]byte
	Index    uint32
}

// TxIn is one input of a Transaction.
type TxIn struct {
	PrevOut         OutPoint
	SignatureScript []byte
	Sequence        uint32
}

// TxOut is one output of a Transaction: a satoshi value and a
// spending condition encoded as a script.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// Transaction is spec.md §3's transaction record.
type Transaction struct {
	Version  uint32
	Inputs   []TxIn
	Outputs  []TxOut
	LockTime uint32
}

// Encode serializes t in the standard (version, inputs, outputs,
// lock_time) order.
func (t *Transaction) Encode() []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, t.Version)

	out = append(out, CompactSize(len(t.Inputs)).Encode()...)
	for _, in := range t.Inputs {
		out = append(out, in.PrevOut.PrevTxid[:]...)
		var idx [4]byte
		binary.LittleEndian.PutUint32(idx[:], in.PrevOut.Index)
		out = append(out, idx[:]...)
		out = append(out, WriteVarBytes(in.SignatureScript)...)
		var seq [4]byte
		binary.LittleEndian.PutUint32(seq[:], in.Sequence)
		out = append(out, seq[:]...)
	}

	out = append(out, CompactSize(len(t.Outputs)).Encode()...)
	for _, o := range t.Outputs {
		var val [8]byte
		binary.LittleEndian.PutUint64(val[:], uint64(o.Value))
		out = append(out, val[:]...)
		out = append(out, WriteVarBytes(o.PkScript)...)
	}

	var lt [4]byte
	binary.LittleEndian.PutUint32(lt[:], t.LockTime)
	out = append(out, lt[:]...)
	return out
}

// DecodeTransaction parses a Transaction, requiring at least one input
// and one output per spec.md §3.
func DecodeTransaction(b []byte) (*Transaction, int, error) {
	if len(b) < 4 {
		return nil, 0, badFormat("tx", "truncated version")
	}
	t := &Transaction{Version: binary.LittleEndian.Uint32(b[0:4])}
	off := 4

	nIn, used, err := DecodeCompactSize(b[off:])
	if err != nil {
		return nil, 0, err
	}
	if nIn < 1 || uint64(nIn) > maxTxInputs {
		return nil, 0, badFormat("tx_in", "count out of range")
	}
	off += used

	t.Inputs = make([]TxIn, 0, nIn)
	for i := uint64(0); i < uint64(nIn); i++ {
		if len(b) < off+36 {
			return nil, 0, badFormat("tx_in", "truncated outpoint")
		}
		var in TxIn
		copy(in.PrevOut.PrevTxid[:], b[off:off+32])
		in.PrevOut.Index = binary.LittleEndian.Uint32(b[off+32 : off+36])
		off += 36

		script, used, err := ReadVarBytes(b[off:], 10_000, "signature_script")
		if err != nil {
			return nil, 0, err
		}
		in.SignatureScript = script
		off += used

		if len(b) < off+4 {
			return nil, 0, badFormat("tx_in", "truncated sequence")
		}
		in.Sequence = binary.LittleEndian.Uint32(b[off : off+4])
		off += 4
		t.Inputs = append(t.Inputs, in)
	}

	nOut, used, err := DecodeCompactSize(b[off:])
	if err != nil {
		return nil, 0, err
	}
	if nOut < 1 || uint64(nOut) > maxTxOutputs {
		return nil, 0, badFormat("tx_out", "count out of range")
	}
	off += used

	t.Outputs = make([]TxOut, 0, nOut)
	for i := uint64(0); i < uint64(nOut); i++ {
		if len(b) < off+8 {
			return nil, 0, badFormat("tx_out", "truncated value")
		}
		var o TxOut
		o.Value = int64(binary.LittleEndian.Uint64(b[off : off+8]))
		off += 8
		script, used, err := ReadVarBytes(b[off:], 10_000, "pk_script")
		if err != nil {
			return nil, 0, err
		}
		o.PkScript = script
		off += used
		t.Outputs = append(t.Outputs, o)
	}

	if len(b) < off+4 {
		return nil, 0, badFormat("tx", "truncated lock_time")
	}
	t.LockTime = binary.LittleEndian.Uint32(b[off : off+4])
	off += 4

	return t, off, nil
}

// Txid is SHA256²(Encode()).
func (t *Transaction) Txid() [32]byte {
	return cryptoutil.Sha256d(t.Encode())
}

// IsCoinbase reports whether t is a coinbase: exactly one input whose
// prevout is the all-zero hash at index 0xffffffff.
func (t *Transaction) IsCoinbase() bool {
	if len(t.Inputs) != 1 {
		return false
	}
	in := t.Inputs[0]
	return in.PrevOut.PrevTxid == [32]byte{} && in.PrevOut.Index == 0xffffffff
}
