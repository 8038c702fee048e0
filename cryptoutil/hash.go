// Package cryptoutil provides the hashing and signature primitives the
// rest of the node builds on: double SHA-256 (the chain's identity hash),
// HASH160 (address/script-hash encoding), secp256k1 ECDSA, and the scrypt
// proof-of-work variant some coin configurations select.
package cryptoutil

import (
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // required for HASH160 compatibility
)

// Sha256d returns SHA256(SHA256(b)), the chain's identity hash used for
// txids and block hashes.
func Sha256d(b []byte) [32]byte {
	first := sha256.Sum256(b)
	return sha256.Sum256(first[:])
}

// Ripemd160 returns the RIPEMD-160 digest of b.
func Ripemd160(b []byte) [20]byte {
	h := ripemd160.New()
	_, _ = h.Write(b)
	var out [20]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Hash160 returns RIPEMD160(SHA256(b)), used to derive P2PKH script hashes
// from public keys.
func Hash160(b []byte) [20]byte {
	sum := sha256.Sum256(b)
	return Ripemd160(sum[:])
}
