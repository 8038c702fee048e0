package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompactSizeShortestForm(t *testing.T) {
	cases := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{0xfc, []byte{0xfc}},
		{0xfd, []byte{0xfd, 0xfd, 0x00}},
		{0xffff, []byte{0xfd, 0xff, 0xff}},
		{0x10000, []byte{0xfe, 0x00, 0x00, 0x01, 0x00}},
		{0xffffffff, []byte{0xfe, 0xff, 0xff, 0xff, 0xff}},
		{0x100000000, []byte{0xff, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}},
	}
	for _, c := range cases {
		require.Equal(t, c.want, CompactSize(c.v).Encode())
	}
}

func TestCompactSizeRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 252, 253, 0xffff, 0x10000, 0xffffffff, 0x100000000, 1 << 40} {
		enc := CompactSize(v).Encode()
		got, used, err := DecodeCompactSize(enc)
		require.NoError(t, err)
		require.Equal(t, len(enc), used)
		require.Equal(t, v, uint64(got))
	}
}

func TestCompactSizeAcceptsNonCanonicalOnRead(t *testing.T) {
	// 0xfd prefix encoding the value 5, which fits in a single byte: not
	// canonical, but readers must accept it (Testable Property 3).
	enc := []byte{0xfd, 0x05, 0x00}
	got, used, err := DecodeCompactSize(enc)
	require.NoError(t, err)
	require.Equal(t, 3, used)
	require.Equal(t, CompactSize(5), got)
}

func TestReadCompactSizeMatchesDecode(t *testing.T) {
	enc := CompactSize(70000).Encode()
	got, err := ReadCompactSize(bytes.NewReader(enc))
	require.NoError(t, err)
	require.Equal(t, CompactSize(70000), got)
}

func TestReadVarBytesEnforcesMax(t *testing.T) {
	payload := WriteVarBytes([]byte("hello world"))
	_, _, err := ReadVarBytes(payload, 4, "test_field")
	require.Error(t, err)

	got, used, err := ReadVarBytes(payload, 64, "test_field")
	require.NoError(t, err)
	require.Equal(t, []byte("hello world"), got)
	require.Equal(t, len(payload), used)
}

func TestReadVarBytesTruncated(t *testing.T) {
	_, _, err := ReadVarBytes([]byte{0x05, 0x01, 0x02}, 64, "field")
	require.Error(t, err)
}
