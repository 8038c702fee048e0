package txscript

import (
	"github.com/coreward/fullnode/cryptoutil"
)

const maxScriptElementSize = 520

// Verify runs scriptSig then scriptPubKey, concatenated, against ctx,
// resetting the OP_CODESEPARATOR marker at the junction between the
// two scripts. It reports script success: the main stack's top
// element is non-zero after both scripts finish.
func Verify(scriptSig, scriptPubKey []byte, ctx *SigContext) (bool, error) {
	sigToks, err := tokenize(scriptSig)
	if err != nil {
		return false, err
	}
	pkToks, err := tokenize(scriptPubKey)
	if err != nil {
		return false, err
	}

	st := &stack{}
	alt := &stack{}

	if err := execute(sigToks, scriptSig, st, alt, ctx); err != nil {
		return false, err
	}
	if err := execute(pkToks, scriptPubKey, st, alt, ctx); err != nil {
		return false, err
	}

	if st.depth() == 0 {
		return false, nil
	}
	top, err := st.peek(0)
	if err != nil {
		return false, err
	}
	return asBool(top), nil
}

// execute runs one script's tokens against the shared stacks. raw is
// the original script bytes the tokens were parsed from, needed to
// rebuild OP_CHECKSIG's subscript.
func execute(toks []token, raw []byte, st, alt *stack, ctx *SigContext) error {
	var branchStack []bool // true = condition currently true (executing)
	codeSepOffset := 0

	active := func() bool {
		for _, b := range branchStack {
			if !b {
				return false
			}
		}
		return true
	}

	for _, tk := range toks {
		if tk.kindTag == tokenLiteral {
			if !active() {
				continue
			}
			if len(tk.data) > maxScriptElementSize {
				return scriptErr(ErrStackLimit, "push exceeds max element size")
			}
			if err := st.push(tk.data); err != nil {
				return err
			}
			continue
		}

		op := tk.kind

		// Disabled/reserved opcodes fail unconditionally, even when
		// the current branch would otherwise skip execution.
		if disabledOpcodes[op] {
			return scriptErr(ErrDisabledOpcode, "disabled opcode executed")
		}
		if reservedOpcodes[op] {
			return scriptErr(ErrReservedOpcode, "reserved opcode executed")
		}

		switch op {
		case OP_IF, OP_NOTIF:
			if !active() {
				branchStack = append(branchStack, false)
				continue
			}
			v, err := st.popBool()
			if err != nil {
				return err
			}
			if op == OP_NOTIF {
				v = !v
			}
			branchStack = append(branchStack, v)
			continue
		case OP_ELSE:
			if len(branchStack) == 0 {
				return scriptErr(ErrUnbalancedIf, "OP_ELSE without OP_IF")
			}
			branchStack[len(branchStack)-1] = !branchStack[len(branchStack)-1]
			continue
		case OP_ENDIF:
			if len(branchStack) == 0 {
				return scriptErr(ErrUnbalancedIf, "OP_ENDIF without OP_IF")
			}
			branchStack = branchStack[:len(branchStack)-1]
			continue
		}

		if !active() {
			continue
		}

		if isNop(op) {
			continue
		}

		if err := execOp(op, tk, raw, &codeSepOffset, st, alt, ctx); err != nil {
			return err
		}
		if op == OP_CODESEPARATOR {
			codeSepOffset = tk.end
		}
	}

	if len(branchStack) != 0 {
		return scriptErr(ErrUnbalancedIf, "unterminated OP_IF")
	}
	return nil
}

func execOp(op Opcode, tk token, raw []byte, codeSepOffset *int, st, alt *stack, ctx *SigContext) error {
	switch op {
	case OP_NOP, OP_CODESEPARATOR:
		return nil

	case OP_VERIFY:
		v, err := st.popBool()
		if err != nil {
			return err
		}
		if !v {
			return scriptErr(ErrVerifyFailed, "OP_VERIFY on falsy top")
		}
		return nil

	case OP_RETURN:
		return scriptErr(ErrReturnOpcode, "OP_RETURN executed")

	case OP_TOALTSTACK:
		v, err := st.pop()
		if err != nil {
			return err
		}
		return alt.push(v)
	case OP_FROMALTSTACK:
		v, err := alt.pop()
		if err != nil {
			return err
		}
		return st.push(v)

	case OP_DROP:
		_, err := st.pop()
		return err
	case OP_2DROP:
		if _, err := st.pop(); err != nil {
			return err
		}
		_, err := st.pop()
		return err
	case OP_DUP:
		v, err := st.peek(0)
		if err != nil {
			return err
		}
		return st.push(append([]byte(nil), v...))
	case OP_2DUP:
		a, err := st.peek(1)
		if err != nil {
			return err
		}
		b, err := st.peek(0)
		if err != nil {
			return err
		}
		if err := st.push(append([]byte(nil), a...)); err != nil {
			return err
		}
		return st.push(append([]byte(nil), b...))
	case OP_3DUP:
		a, err := st.peek(2)
		if err != nil {
			return err
		}
		b, err := st.peek(1)
		if err != nil {
			return err
		}
		c, err := st.peek(0)
		if err != nil {
			return err
		}
		for _, v := range [][]byte{a, b, c} {
			if err := st.push(append([]byte(nil), v...)); err != nil {
				return err
			}
		}
		return nil
	case OP_OVER:
		v, err := st.peek(1)
		if err != nil {
			return err
		}
		return st.push(append([]byte(nil), v...))
	case OP_NIP:
		top, err := st.pop()
		if err != nil {
			return err
		}
		if _, err := st.pop(); err != nil {
			return err
		}
		return st.push(top)
	case OP_SWAP:
		a, err := st.pop()
		if err != nil {
			return err
		}
		b, err := st.pop()
		if err != nil {
			return err
		}
		if err := st.push(a); err != nil {
			return err
		}
		return st.push(b)
	case OP_TUCK:
		a, err := st.pop()
		if err != nil {
			return err
		}
		b, err := st.pop()
		if err != nil {
			return err
		}
		if err := st.push(append([]byte(nil), a...)); err != nil {
			return err
		}
		if err := st.push(b); err != nil {
			return err
		}
		return st.push(a)
	case OP_ROT:
		c, err := st.pop()
		if err != nil {
			return err
		}
		b, err := st.pop()
		if err != nil {
			return err
		}
		a, err := st.pop()
		if err != nil {
			return err
		}
		if err := st.push(b); err != nil {
			return err
		}
		if err := st.push(c); err != nil {
			return err
		}
		return st.push(a)
	case OP_2SWAP:
		d, err := st.pop()
		if err != nil {
			return err
		}
		c, err := st.pop()
		if err != nil {
			return err
		}
		b, err := st.pop()
		if err != nil {
			return err
		}
		a, err := st.pop()
		if err != nil {
			return err
		}
		if err := st.push(c); err != nil {
			return err
		}
		if err := st.push(d); err != nil {
			return err
		}
		if err := st.push(a); err != nil {
			return err
		}
		return st.push(b)
	case OP_2OVER:
		a, err := st.peek(3)
		if err != nil {
			return err
		}
		b, err := st.peek(2)
		if err != nil {
			return err
		}
		if err := st.push(append([]byte(nil), a...)); err != nil {
			return err
		}
		return st.push(append([]byte(nil), b...))
	case OP_PICK, OP_ROLL:
		n, err := st.popInt()
		if err != nil {
			return err
		}
		if n < 0 {
			return scriptErr(ErrStackUnderflow, "negative OP_PICK/OP_ROLL index")
		}
		v, err := st.peek(int(n))
		if err != nil {
			return err
		}
		if op == OP_PICK {
			return st.push(append([]byte(nil), v...))
		}
		idx := len(st.items) - 1 - int(n)
		st.items = append(st.items[:idx], st.items[idx+1:]...)
		return st.push(v)
	case OP_DEPTH:
		return st.pushInt(int64(st.depth()))
	case OP_IFDUP:
		v, err := st.peek(0)
		if err != nil {
			return err
		}
		if asBool(v) {
			return st.push(append([]byte(nil), v...))
		}
		return nil
	case OP_SIZE:
		v, err := st.peek(0)
		if err != nil {
			return err
		}
		return st.pushInt(int64(len(v)))

	case OP_EQUAL, OP_EQUALVERIFY:
		a, err := st.pop()
		if err != nil {
			return err
		}
		b, err := st.pop()
		if err != nil {
			return err
		}
		eq := bytesEqual(a, b)
		if op == OP_EQUALVERIFY {
			if !eq {
				return scriptErr(ErrVerifyFailed, "OP_EQUALVERIFY failed")
			}
			return nil
		}
		return st.pushBool(eq)

	case OP_1ADD, OP_1SUB, OP_NEGATE, OP_ABS, OP_NOT, OP_0NOTEQUAL:
		v, err := st.popInt()
		if err != nil {
			return err
		}
		var r int64
		switch op {
		case OP_1ADD:
			r = v + 1
		case OP_1SUB:
			r = v - 1
		case OP_NEGATE:
			r = -v
		case OP_ABS:
			if v < 0 {
				r = -v
			} else {
				r = v
			}
		case OP_NOT:
			if v == 0 {
				r = 1
			}
		case OP_0NOTEQUAL:
			if v != 0 {
				r = 1
			}
		}
		return st.pushInt(r)

	case OP_ADD, OP_SUB, OP_BOOLAND, OP_BOOLOR, OP_NUMEQUAL, OP_NUMEQUALVERIFY,
		OP_NUMNOTEQUAL, OP_LESSTHAN, OP_GREATERTHAN, OP_LESSTHANOREQUAL,
		OP_GREATERTHANOREQUAL, OP_MIN, OP_MAX:
		b, err := st.popInt()
		if err != nil {
			return err
		}
		a, err := st.popInt()
		if err != nil {
			return err
		}
		switch op {
		case OP_ADD:
			return st.pushInt(a + b)
		case OP_SUB:
			return st.pushInt(a - b)
		case OP_BOOLAND:
			return st.pushBool(a != 0 && b != 0)
		case OP_BOOLOR:
			return st.pushBool(a != 0 || b != 0)
		case OP_NUMEQUAL:
			return st.pushBool(a == b)
		case OP_NUMEQUALVERIFY:
			if a != b {
				return scriptErr(ErrVerifyFailed, "OP_NUMEQUALVERIFY failed")
			}
			return nil
		case OP_NUMNOTEQUAL:
			return st.pushBool(a != b)
		case OP_LESSTHAN:
			return st.pushBool(a < b)
		case OP_GREATERTHAN:
			return st.pushBool(a > b)
		case OP_LESSTHANOREQUAL:
			return st.pushBool(a <= b)
		case OP_GREATERTHANOREQUAL:
			return st.pushBool(a >= b)
		case OP_MIN:
			if a < b {
				return st.pushInt(a)
			}
			return st.pushInt(b)
		case OP_MAX:
			if a > b {
				return st.pushInt(a)
			}
			return st.pushInt(b)
		}
		return nil

	case OP_WITHIN:
		max, err := st.popInt()
		if err != nil {
			return err
		}
		min, err := st.popInt()
		if err != nil {
			return err
		}
		v, err := st.popInt()
		if err != nil {
			return err
		}
		return st.pushBool(v >= min && v < max)

	case OP_RIPEMD160, OP_SHA256, OP_HASH160, OP_HASH256, OP_SHA1:
		v, err := st.pop()
		if err != nil {
			return err
		}
		return st.push(hashOp(op, v))

	case OP_CHECKSIG, OP_CHECKSIGVERIFY:
		return execCheckSig(op, raw, *codeSepOffset, st, ctx)

	case OP_CHECKMULTISIG, OP_CHECKMULTISIGVERIFY:
		return execCheckMultisig(op, raw, *codeSepOffset, st, ctx)

	default:
		return scriptErr(ErrUnknownOpcode, "unrecognized opcode")
	}
}

func hashOp(op Opcode, v []byte) []byte {
	switch op {
	case OP_RIPEMD160:
		h := cryptoutil.Ripemd160(v)
		return h[:]
	case OP_SHA256:
		h := sha256Single(v)
		return h[:]
	case OP_HASH160:
		h := cryptoutil.Hash160(v)
		return h[:]
	case OP_HASH256:
		h := cryptoutil.Sha256d(v)
		return h[:]
	case OP_SHA1:
		h := sha1Sum(v)
		return h[:]
	}
	return nil
}
