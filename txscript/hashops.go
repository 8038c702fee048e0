package txscript

import (
	"crypto/sha1" //nolint:gosec // OP_SHA1 is a legacy script opcode, not used for security
	"crypto/sha256"
)

func sha256Single(b []byte) [32]byte {
	return sha256.Sum256(b)
}

func sha1Sum(b []byte) [20]byte {
	return sha1.Sum(b)
}
