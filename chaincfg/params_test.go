package chaincfg

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenesisHashIsDeterministic(t *testing.T) {
	p := MainNetParams()
	a := p.GenesisHash()
	b := p.GenesisHash()
	require.Equal(t, a, b)

	other := TestNetParams()
	// Testnet shares mainnet's genesis fields, so the genesis hash
	// is identical even though magic/port/address-version differ.
	require.Equal(t, a, other.GenesisHash())
}

func TestGenesisHeaderBytesLength(t *testing.T) {
	p := MainNetParams()
	h := p.GenesisHeaderBytes()
	require.Len(t, h, 80)
}

func TestHalvingSubsidySchedule(t *testing.T) {
	f := HalvingSubsidy(50*1e8, 210000)
	require.Equal(t, int64(50*1e8), f(0))
	require.Equal(t, int64(50*1e8), f(209999))
	require.Equal(t, int64(25*1e8), f(210000))
	require.Equal(t, int64(25*1e8), f(419999))
	require.Equal(t, int64(1250000000), f(420000))
}

func TestHalvingSubsidyEventuallyZero(t *testing.T) {
	f := HalvingSubsidy(50*1e8, 210000)
	require.Equal(t, int64(0), f(210000*65))
}

func TestCompactBigRoundTrip(t *testing.T) {
	cases := []uint32{0x1d00ffff, 0x1e0ffff0, 0x207fffff, 0x1b0404cb}
	for _, bits := range cases {
		target := CompactToBig(bits)
		back := BigToCompact(target)
		require.Equal(t, bits, back, "bits=%#x", bits)
	}
}

func TestCompactToBigMatchesKnownDifficulty1(t *testing.T) {
	// Bitcoin's difficulty-1 target, expressed as bits 0x1d00ffff,
	// expands to 0x00ffff * 2^(8*(0x1d-3)).
	got := CompactToBig(0x1d00ffff)
	want := new(big.Int).Lsh(big.NewInt(0x00ffff), 8*(0x1d-3))
	require.Equal(t, 0, got.Cmp(want))
}

func TestMainNetParamsMagicAndPort(t *testing.T) {
	p := MainNetParams()
	require.Equal(t, uint32(0xd9b4bef9), p.Magic)
	require.Equal(t, uint16(8333), p.Port)
	require.Equal(t, PoWSha256d, p.ProofOfWork)
}

func TestScryptParamsSelectsScrypt(t *testing.T) {
	p := ScryptParams()
	require.Equal(t, PoWScrypt, p.ProofOfWork)
	require.NotEqual(t, MainNetParams().Magic, p.Magic)
}
