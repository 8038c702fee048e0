package cryptoutil

import (
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// ErrInvalidPubKey is returned when a serialized public key cannot be
// parsed as a valid secp256k1 point.
var ErrInvalidPubKey = errors.New("cryptoutil: invalid public key encoding")

// ParsePubKey parses a compressed or uncompressed secp256k1 public key as
// it appears pushed onto the script stack.
func ParsePubKey(serialized []byte) (*btcec.PublicKey, error) {
	pub, err := btcec.ParsePubKey(serialized)
	if err != nil {
		return nil, ErrInvalidPubKey
	}
	return pub, nil
}

// VerifySignature checks a DER-encoded ECDSA signature against digest
// under pubKey. It returns false (never an error) for any malformed
// signature or key, matching the script VM's "push 0 on failure" rule.
func VerifySignature(pubKeyBytes, derSig []byte, digest [32]byte) bool {
	pub, err := btcec.ParsePubKey(pubKeyBytes)
	if err != nil {
		return false
	}
	sig, err := ecdsa.ParseDERSignature(derSig)
	if err != nil {
		return false
	}
	return sig.Verify(digest[:], pub)
}
