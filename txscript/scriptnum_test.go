package txscript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScriptNumBytesZeroIsEmpty(t *testing.T) {
	require.Empty(t, scriptNumBytes(0))
}

func TestScriptNumRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 16, -16, 127, -127, 128, -128, 255, -255, 256, -256, 65535, -65535} {
		enc := scriptNumBytes(v)
		got, err := scriptNumToInt(enc)
		require.NoError(t, err)
		require.Equal(t, v, got, "value %d encoded as % x", v, enc)
	}
}

func TestScriptNumToIntRejectsOverlongOperands(t *testing.T) {
	_, err := scriptNumToInt([]byte{1, 2, 3, 4, 5})
	require.Error(t, err)
	var serr *ScriptError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, ErrNumericOverflow, serr.Code)
}

func TestScriptNumToIntEmptyIsZero(t *testing.T) {
	v, err := scriptNumToInt(nil)
	require.NoError(t, err)
	require.Zero(t, v)
}

func TestScriptNumNegativeEncodingSetsSignBit(t *testing.T) {
	enc := scriptNumBytes(-1)
	require.Equal(t, []byte{0x81}, enc)

	enc = scriptNumBytes(1)
	require.Equal(t, []byte{0x01}, enc)
}

func TestAsBoolTruthiness(t *testing.T) {
	require.False(t, asBool(nil))
	require.False(t, asBool([]byte{0x00}))
	require.False(t, asBool([]byte{0x00, 0x00}))
	require.False(t, asBool([]byte{0x80})) // negative zero
	require.True(t, asBool([]byte{0x01}))
	require.True(t, asBool([]byte{0x00, 0x01}))
	require.False(t, asBool([]byte{0x00, 0x80})) // negative zero with a leading zero byte
}
