package txscript

import "encoding/binary"

// tokenKind distinguishes a literal data push from an operator.
type tokenKind int

const (
	tokenLiteral tokenKind = iota
	tokenOp
)

// token is one parsed unit of a script: either a literal byte string
// (from a push opcode) or a plain operator. start/end span the raw
// script bytes the token was parsed from, including its push-length
// prefix, for subscript reconstruction (OP_CODESEPARATOR handling).
type token struct {
	kindTag  tokenKind
	kind     Opcode
	data     []byte
	start    int
	end      int
}

// tokenize splits raw script bytes into a stream of tokens. It does
// not execute anything; OP_VERIF/OP_VERNOTIF and disabled opcodes are
// still emitted as tokens so the engine can fail on them even inside
// a skipped branch.
func tokenize(script []byte) ([]token, error) {
	return tokenizeWithSpans(script)
}

func tokenizeWithSpans(script []byte) ([]token, error) {
	var out []token
	i := 0
	for i < len(script) {
		start := i
		op := Opcode(script[i])
		switch {
		case op >= 0x01 && op <= 0x4b:
			n := int(op)
			if i+1+n > len(script) {
				return nil, scriptErr(ErrTruncatedPushdata, "direct push truncated")
			}
			out = append(out, token{kindTag: tokenLiteral, data: script[i+1 : i+1+n], start: start, end: i + 1 + n})
			i += 1 + n

		case op == OP_PUSHDATA1:
			if i+2 > len(script) {
				return nil, scriptErr(ErrTruncatedPushdata, "PUSHDATA1 length truncated")
			}
			n := int(script[i+1])
			if i+2+n > len(script) {
				return nil, scriptErr(ErrTruncatedPushdata, "PUSHDATA1 data truncated")
			}
			out = append(out, token{kindTag: tokenLiteral, data: script[i+2 : i+2+n], start: start, end: i + 2 + n})
			i += 2 + n

		case op == OP_PUSHDATA2:
			if i+3 > len(script) {
				return nil, scriptErr(ErrTruncatedPushdata, "PUSHDATA2 length truncated")
			}
			n := int(binary.LittleEndian.Uint16(script[i+1 : i+3]))
			if i+3+n > len(script) {
				return nil, scriptErr(ErrTruncatedPushdata, "PUSHDATA2 data truncated")
			}
			out = append(out, token{kindTag: tokenLiteral, data: script[i+3 : i+3+n], start: start, end: i + 3 + n})
			i += 3 + n

		case op == OP_PUSHDATA4:
			if i+5 > len(script) {
				return nil, scriptErr(ErrTruncatedPushdata, "PUSHDATA4 length truncated")
			}
			n := int(binary.LittleEndian.Uint32(script[i+1 : i+5]))
			if i+5+n > len(script) || n < 0 {
				return nil, scriptErr(ErrTruncatedPushdata, "PUSHDATA4 data truncated")
			}
			out = append(out, token{kindTag: tokenLiteral, data: script[i+5 : i+5+n], start: start, end: i + 5 + n})
			i += 5 + n

		case op == OP_1NEGATE:
			out = append(out, token{kindTag: tokenLiteral, data: scriptNumBytes(-1), start: start, end: i + 1})
			i++

		case op == OP_0:
			out = append(out, token{kindTag: tokenLiteral, data: nil, start: start, end: i + 1})
			i++

		case op >= OP_1 && op <= OP_16:
			val := int64(op) - int64(OP_1) + 1
			out = append(out, token{kindTag: tokenLiteral, data: scriptNumBytes(val), start: start, end: i + 1})
			i++

		default:
			out = append(out, token{kindTag: tokenOp, kind: op, start: start, end: i + 1})
			i++
		}
	}
	return out, nil
}
