package txindex

// ErrorCode names a class of txindex failure, mirroring the tagged-
// error pattern used across blockchain and txscript.
type ErrorCode string

const (
	// ErrMerkleMismatch means the supplied transaction set's Merkle
	// root does not match the block header's.
	ErrMerkleMismatch ErrorCode = "merkle_mismatch"
)

// IndexError is a tagged txindex failure.
type IndexError struct {
	Code ErrorCode
	Msg  string
}

func (e *IndexError) Error() string { return string(e.Code) + ": " + e.Msg }

func indexErr(code ErrorCode, msg string) error {
	return &IndexError{Code: code, Msg: msg}
}
