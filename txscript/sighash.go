package txscript

import (
	"encoding/binary"

	"github.com/coreward/fullnode/cryptoutil"
	"github.com/coreward/fullnode/wire"
)

// Hash type bytes, as carried in the final byte of every DER
// signature pushed by scriptSig.
const (
	SighashAll          byte = 0x01
	SighashNone         byte = 0x02
	SighashSingle       byte = 0x03
	SighashAnyOneCanPay byte = 0x80
)

// SigContext carries the transaction-wide state OP_CHECKSIG needs to
// rebuild the modified transaction its digest is computed over.
type SigContext struct {
	Tx         *wire.Transaction
	InputIndex int
}

// sighashDigest builds the modified transaction per hashType and
// returns SHA256²(serialized || hashType_le32).
func sighashDigest(ctx *SigContext, subscript []byte, hashType byte) ([32]byte, error) {
	tx := ctx.Tx
	idx := ctx.InputIndex
	if idx < 0 || idx >= len(tx.Inputs) {
		return [32]byte{}, scriptErr(ErrBadSignature, "input index out of range")
	}

	base := hashType &^ SighashAnyOneCanPay
	anyoneCanPay := hashType&SighashAnyOneCanPay != 0

	modified := &wire.Transaction{
		Version:  tx.Version,
		LockTime: tx.LockTime,
	}

	if anyoneCanPay {
		in := tx.Inputs[idx]
		in.SignatureScript = subscript
		modified.Inputs = []wire.TxIn{in}
	} else {
		modified.Inputs = make([]wire.TxIn, len(tx.Inputs))
		for i, in := range tx.Inputs {
			cp := in
			if i == idx {
				cp.SignatureScript = subscript
			} else {
				cp.SignatureScript = nil
				if base == SighashNone || base == SighashSingle {
					cp.Sequence = 0
				}
			}
			modified.Inputs[i] = cp
		}
	}

	switch base {
	case SighashNone:
		modified.Outputs = nil
	case SighashSingle:
		if idx >= len(tx.Outputs) {
			return [32]byte{}, scriptErr(ErrBadSignature, "SIGHASH_SINGLE index beyond outputs")
		}
		modified.Outputs = make([]wire.TxOut, idx+1)
		for i := 0; i < idx; i++ {
			modified.Outputs[i] = wire.TxOut{Value: -1}
		}
		modified.Outputs[idx] = tx.Outputs[idx]
	default: // SIGHASH_ALL
		modified.Outputs = tx.Outputs
	}

	buf := modified.Encode()
	var htBytes [4]byte
	binary.LittleEndian.PutUint32(htBytes[:], uint32(hashType))
	buf = append(buf, htBytes[:]...)
	return cryptoutil.Sha256d(buf), nil
}

// subscriptFrom builds OP_CHECKSIG's subscript: the bytes of script
// from the most recent OP_CODESEPARATOR (or the start) to the end,
// with OP_CODESEPARATOR bytes and any literal push exactly equal to
// sig removed.
func subscriptFrom(script []byte, codeSepOffset int, sig []byte) []byte {
	if codeSepOffset > len(script) {
		codeSepOffset = len(script)
	}
	region := script[codeSepOffset:]
	return findAndDelete(region, sig)
}

// findAndDelete strips OP_CODESEPARATOR bytes and any push-data whose
// raw payload equals target from script, reassembling the remainder.
func findAndDelete(script []byte, target []byte) []byte {
	toks, err := tokenizeWithSpans(script)
	if err != nil {
		return script
	}
	out := make([]byte, 0, len(script))
	for _, s := range toks {
		if s.kindTag == tokenOp && s.kind == OP_CODESEPARATOR {
			continue
		}
		if s.kindTag == tokenLiteral && len(target) > 0 && bytesEqual(s.data, target) {
			continue
		}
		out = append(out, script[s.start:s.end]...)
	}
	return out
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
