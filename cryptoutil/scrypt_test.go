package cryptoutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScryptPoWDeterministic(t *testing.T) {
	header := make([]byte, 80)
	for i := range header {
		header[i] = byte(i)
	}
	a, err := ScryptPoW(header)
	require.NoError(t, err)
	b, err := ScryptPoW(header)
	require.NoError(t, err)
	require.Equal(t, a, b)

	header[0] ^= 0xff
	c, err := ScryptPoW(header)
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}
