package chaincfg

import "math/big"

// CompactToBig expands a block header's 32-bit "bits" field into its
// full target: the low 3 bytes are a mantissa, the high byte an
// exponent in bytes, following the same convention Bitcoin and its
// forks use for compact difficulty targets.
func CompactToBig(bits uint32) *big.Int {
	mantissa := bits & 0x007fffff
	exponent := uint(bits >> 24)

	target := new(big.Int)
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		target.SetInt64(int64(mantissa))
	} else {
		target.SetInt64(int64(mantissa))
		target.Lsh(target, 8*(exponent-3))
	}

	if bits&0x00800000 != 0 {
		target.Neg(target)
	}
	return target
}

// BigToCompact does the reverse of CompactToBig: it packs an
// arbitrary-precision target back into the 32-bit compact form,
// rounding the mantissa down to fit 23 bits.
func BigToCompact(n *big.Int) uint32 {
	if n.Sign() == 0 {
		return 0
	}

	negative := n.Sign() < 0
	work := new(big.Int).Abs(n)

	exponent := uint((work.BitLen() + 7) / 8)
	var mantissa uint32
	if exponent <= 3 {
		mantissa = uint32(work.Int64())
		mantissa <<= 8 * (3 - exponent)
	} else {
		shifted := new(big.Int).Rsh(work, 8*(exponent-3))
		mantissa = uint32(shifted.Int64())
	}

	// The mantissa's high bit is a sign flag; if set by the natural
	// value, shift right one byte and bump the exponent to compensate.
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	compact := uint32(exponent)<<24 | mantissa
	if negative {
		compact |= 0x00800000
	}
	return compact
}
