package cryptoutil

import "golang.org/x/crypto/scrypt"

// Scrypt PoW parameters as used by the Litecoin-derived scrypt variant:
// N=1024, r=1, p=1, 32-byte output, header bytes salted with themselves.
const (
	scryptN = 1024
	scryptR = 1
	scryptP = 1
)

// ScryptPoW computes the scrypt-based proof-of-work hash of an 80-byte
// block header, the alternative to Sha256d that chaincfg.Params.ProofOfWork
// names (PoWScrypt) for scrypt-family coins. blockchain.Store.AddHeader
// does not call it: its work check hashes every header with Sha256d.
func ScryptPoW(headerBytes []byte) ([32]byte, error) {
	var out [32]byte
	digest, err := scrypt.Key(headerBytes, headerBytes, scryptN, scryptR, scryptP, 32)
	if err != nil {
		return out, err
	}
	copy(out[:], digest)
	return out, nil
}
