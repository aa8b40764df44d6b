package didt

import "fmt"

// ErrorCode identifies why a DID token was rejected. Values match the codes
// emitted by the Magic Admin SDKs so that clients can switch on them.
type ErrorCode string

const (
	ErrCodeMalformedToken         ErrorCode = "ERROR_MALFORMED_TOKEN"
	ErrCodeFailedRecoveringProof  ErrorCode = "ERROR_FAILED_RECOVERING_PROOF"
	ErrCodeIncorrectSignerAddress ErrorCode = "ERROR_INCORRECT_SIGNER_ADDR"
	ErrCodeTokenExpired           ErrorCode = "ERROR_DIDT_EXPIRED"
	ErrCodeTokenCannotBeUsedYet   ErrorCode = "ERROR_DIDT_CANNOT_BE_USED_YET"
	ErrCodeAudienceMismatch       ErrorCode = "ERROR_AUDIENCE_MISMATCH"
)

// ErrorCodes lists every code this package can return.
var ErrorCodes = []ErrorCode{
	ErrCodeMalformedToken,
	ErrCodeFailedRecoveringProof,
	ErrCodeIncorrectSignerAddress,
	ErrCodeTokenExpired,
	ErrCodeTokenCannotBeUsedYet,
	ErrCodeAudienceMismatch,
}

// Error is returned for every token-level rejection. Callers distinguish it
// from transport or context errors with errors.As.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("didt: %s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
