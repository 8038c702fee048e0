package blockchain

import "math/big"

// powMeetsTarget reports whether hash, interpreted as a little-endian
// 256-bit integer (Bitcoin's on-wire hash byte order), is at or below
// target. Grounded on the teacher's consensus.PowCheck numeric
// comparison, adapted from the teacher's big-endian hash convention to
// the little-endian one spec.md's coin family uses.
func powMeetsTarget(hash [32]byte, target *big.Int) bool {
	if target.Sign() <= 0 {
		return false
	}
	reversed := make([]byte, 32)
	for i, b := range hash {
		reversed[31-i] = b
	}
	hashInt := new(big.Int).SetBytes(reversed)
	return hashInt.Cmp(target) <= 0
}
