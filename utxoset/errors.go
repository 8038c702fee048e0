package utxoset

// ErrorCode names a class of UTXO-engine failure, mirroring the
// tagged-error pattern used across blockchain and txscript.
type ErrorCode string

const (
	// ErrNonConsecutive means block.PreviousBlockID does not equal the
	// store's last_valid_block.
	ErrNonConsecutive ErrorCode = "non_consecutive"
	// ErrPrevOutNotFound means an input's previous output could not be
	// resolved via the transaction store.
	ErrPrevOutNotFound ErrorCode = "prevout_not_found"
	// ErrScriptVerifyFailed means an input's script failed to unlock
	// its previous output's pk_script.
	ErrScriptVerifyFailed ErrorCode = "script_verify_failed"
	// ErrInvalidCoinbase means the coinbase output sum exceeds
	// subsidy(height) + fees.
	ErrInvalidCoinbase ErrorCode = "invalid_coinbase"
	// ErrMissingCoinbase means block.Transactions[0] is not a coinbase.
	ErrMissingCoinbase ErrorCode = "missing_coinbase"
)

// SetError is a tagged utxoset failure.
type SetError struct {
	Code ErrorCode
	Msg  string
}

func (e *SetError) Error() string { return string(e.Code) + ": " + e.Msg }

func setErr(code ErrorCode, msg string) error {
	return &SetError{Code: code, Msg: msg}
}
