package txscript

import "github.com/coreward/fullnode/cryptoutil"

func execCheckSig(op Opcode, raw []byte, codeSepOffset int, st *stack, ctx *SigContext) error {
	pubKey, err := st.pop()
	if err != nil {
		return err
	}
	sig, err := st.pop()
	if err != nil {
		return err
	}

	ok, err := verifySig(raw, codeSepOffset, sig, pubKey, ctx)
	if err != nil {
		return err
	}
	if op == OP_CHECKSIGVERIFY {
		if !ok {
			return scriptErr(ErrVerifyFailed, "OP_CHECKSIGVERIFY failed")
		}
		return nil
	}
	return st.pushBool(ok)
}

// verifySig checks a single DER signature + hash-type byte against
// pubKey, over the subscript derived from raw starting at
// codeSepOffset with sig's own bytes filtered out.
func verifySig(raw []byte, codeSepOffset int, sig, pubKey []byte, ctx *SigContext) (bool, error) {
	if len(sig) == 0 {
		return false, nil
	}
	hashType := sig[len(sig)-1]
	der := sig[:len(sig)-1]

	subscript := subscriptFrom(raw, codeSepOffset, sig)
	digest, err := sighashDigest(ctx, subscript, hashType)
	if err != nil {
		return false, err
	}
	if _, err := cryptoutil.ParsePubKey(pubKey); err != nil {
		return false, nil
	}
	return cryptoutil.VerifySignature(pubKey, der, digest), nil
}

// execCheckMultisig implements OP_CHECKMULTISIG / VERIFY, including
// the historical extra-stack-element bug: pops n, n pubkeys, m, m
// signatures, then one additional element that is discarded.
// Signatures are matched against pubkeys in order; success requires
// every signature to find a distinct key.
func execCheckMultisig(op Opcode, raw []byte, codeSepOffset int, st *stack, ctx *SigContext) error {
	n, err := st.popInt()
	if err != nil {
		return err
	}
	if n < 0 || n > 20 {
		return scriptErr(ErrStackLimit, "OP_CHECKMULTISIG pubkey count out of range")
	}
	pubKeys := make([][]byte, n)
	for i := int64(0); i < n; i++ {
		pubKeys[i], err = st.pop()
		if err != nil {
			return err
		}
	}

	m, err := st.popInt()
	if err != nil {
		return err
	}
	if m < 0 || m > n {
		return scriptErr(ErrStackLimit, "OP_CHECKMULTISIG signature count out of range")
	}
	sigs := make([][]byte, m)
	for i := int64(0); i < m; i++ {
		sigs[i], err = st.pop()
		if err != nil {
			return err
		}
	}

	// The historical dummy element consumed by every CHECKMULTISIG
	// call, due to an off-by-one in the original implementation.
	if _, err := st.pop(); err != nil {
		return err
	}

	ok := true
	keyIdx := 0
	for _, sig := range sigs {
		matched := false
		for keyIdx < len(pubKeys) {
			candidate := pubKeys[keyIdx]
			keyIdx++
			valid, err := verifySig(raw, codeSepOffset, sig, candidate, ctx)
			if err != nil {
				return err
			}
			if valid {
				matched = true
				break
			}
		}
		if !matched {
			ok = false
			break
		}
	}

	if op == OP_CHECKMULTISIGVERIFY {
		if !ok {
			return scriptErr(ErrVerifyFailed, "OP_CHECKMULTISIGVERIFY failed")
		}
		return nil
	}
	return st.pushBool(ok)
}
