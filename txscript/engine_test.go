package txscript

import (
	"testing"

	"github.com/coreward/fullnode/wire"
	"github.com/stretchr/testify/require"
)

func simpleCtx() *SigContext {
	return &SigContext{Tx: &wire.Transaction{
		Version: 1,
		Inputs:  []wire.TxIn{{Sequence: 0xffffffff}},
		Outputs: []wire.TxOut{{Value: 1}},
	}, InputIndex: 0}
}

func TestVerifyTrivialTruePubScript(t *testing.T) {
	ok, err := Verify(nil, []byte{byte(OP_1)}, simpleCtx())
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyTrivialFalsePubScript(t *testing.T) {
	ok, err := Verify(nil, []byte{byte(OP_0)}, simpleCtx())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyEmptyStackAtEndIsFalse(t *testing.T) {
	ok, err := Verify(nil, []byte{byte(OP_DEPTH), byte(OP_DROP)}, simpleCtx())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIfElseEndifTakesTrueBranch(t *testing.T) {
	script := []byte{
		byte(OP_1), byte(OP_IF),
		byte(OP_2),
		byte(OP_ELSE),
		byte(OP_3),
		byte(OP_ENDIF),
	}
	ok, err := Verify(nil, script, simpleCtx())
	require.NoError(t, err)
	require.True(t, ok) // top of stack is 2, truthy

	st := &stack{}
	toks, err := tokenize(script)
	require.NoError(t, err)
	require.NoError(t, execute(toks, script, st, &stack{}, simpleCtx()))
	v, err := st.popInt()
	require.NoError(t, err)
	require.Equal(t, int64(2), v)
}

func TestIfElseEndifTakesFalseBranch(t *testing.T) {
	script := []byte{
		byte(OP_0), byte(OP_IF),
		byte(OP_2),
		byte(OP_ELSE),
		byte(OP_3),
		byte(OP_ENDIF),
	}
	st := &stack{}
	toks, err := tokenize(script)
	require.NoError(t, err)
	require.NoError(t, execute(toks, script, st, &stack{}, simpleCtx()))
	v, err := st.popInt()
	require.NoError(t, err)
	require.Equal(t, int64(3), v)
}

func TestNestedIfSkipsInnerBranchContent(t *testing.T) {
	// Outer false: neither inner branch should ever push anything.
	script := []byte{
		byte(OP_0), byte(OP_IF),
		byte(OP_1), byte(OP_IF),
		byte(OP_2),
		byte(OP_ENDIF),
		byte(OP_ENDIF),
		byte(OP_5),
	}
	st := &stack{}
	toks, err := tokenize(script)
	require.NoError(t, err)
	require.NoError(t, execute(toks, script, st, &stack{}, simpleCtx()))
	require.Equal(t, 1, st.depth())
	v, err := st.popInt()
	require.NoError(t, err)
	require.Equal(t, int64(5), v)
}

func TestUnbalancedIfFails(t *testing.T) {
	script := []byte{byte(OP_1), byte(OP_IF), byte(OP_2)}
	_, err := Verify(nil, script, simpleCtx())
	require.Error(t, err)
	var serr *ScriptError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, ErrUnbalancedIf, serr.Code)
}

func TestElseWithoutIfFails(t *testing.T) {
	script := []byte{byte(OP_ELSE), byte(OP_ENDIF)}
	_, err := Verify(nil, script, simpleCtx())
	require.Error(t, err)
}

func TestDisabledOpcodeFailsEvenInsideSkippedBranch(t *testing.T) {
	script := []byte{
		byte(OP_0), byte(OP_IF),
		byte(OP_CAT), // disabled; must fail even though this branch is not taken
		byte(OP_ENDIF),
	}
	_, err := Verify(nil, script, simpleCtx())
	require.Error(t, err)
	var serr *ScriptError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, ErrDisabledOpcode, serr.Code)
}

func TestReservedOpcodeFailsEvenInsideSkippedBranch(t *testing.T) {
	script := []byte{
		byte(OP_0), byte(OP_IF),
		byte(OP_VERIF),
		byte(OP_ENDIF),
	}
	_, err := Verify(nil, script, simpleCtx())
	require.Error(t, err)
	var serr *ScriptError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, ErrReservedOpcode, serr.Code)
}

func TestOpReturnFailsScript(t *testing.T) {
	_, err := Verify(nil, []byte{byte(OP_1), byte(OP_RETURN)}, simpleCtx())
	require.Error(t, err)
	var serr *ScriptError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, ErrReturnOpcode, serr.Code)
}

func TestArithmeticOpsProduceExpectedResult(t *testing.T) {
	// 3 4 OP_ADD == 7
	script := []byte{byte(OP_3), byte(OP_4), byte(OP_ADD)}
	st := &stack{}
	toks, err := tokenize(script)
	require.NoError(t, err)
	require.NoError(t, execute(toks, script, st, &stack{}, simpleCtx()))
	v, err := st.popInt()
	require.NoError(t, err)
	require.Equal(t, int64(7), v)
}

func TestWithinRangeCheck(t *testing.T) {
	// 5 WITHIN(1,10) -> true
	script := []byte{byte(OP_5), byte(OP_1), byte(OP_10), byte(OP_WITHIN)}
	ok, err := Verify(nil, script, simpleCtx())
	require.NoError(t, err)
	require.True(t, ok)
}

func TestHash160MatchesExpectedDigest(t *testing.T) {
	script := []byte{0x03, 'a', 'b', 'c', byte(OP_HASH160)}
	st := &stack{}
	toks, err := tokenize(script)
	require.NoError(t, err)
	require.NoError(t, execute(toks, script, st, &stack{}, simpleCtx()))
	v, err := st.pop()
	require.NoError(t, err)
	require.Len(t, v, 20)
	// RIPEMD160(SHA256("abc"))
	require.Equal(t, []byte{
		0xbb, 0x1b, 0xe9, 0x8c, 0x14, 0x24, 0x44, 0xd7, 0xa5, 0x6a,
		0xa3, 0x98, 0x1c, 0x39, 0x42, 0xa9, 0x78, 0xe4, 0xdc, 0x33,
	}, v)
}

func TestRotStackManipulation(t *testing.T) {
	// 1 2 3 OP_ROT -> 2 3 1 (top is 1)
	script := []byte{byte(OP_1), byte(OP_2), byte(OP_3), byte(OP_ROT)}
	st := &stack{}
	toks, err := tokenize(script)
	require.NoError(t, err)
	require.NoError(t, execute(toks, script, st, &stack{}, simpleCtx()))
	v, err := st.popInt()
	require.NoError(t, err)
	require.Equal(t, int64(1), v)
	v, err = st.popInt()
	require.NoError(t, err)
	require.Equal(t, int64(3), v)
	v, err = st.popInt()
	require.NoError(t, err)
	require.Equal(t, int64(2), v)
}
