package record

import (
	"errors"
	"fmt"
)

// Code categorizes a failed operation. Codes are stable and surface in CLI
// responses and metrics labels.
type Code string

const (
	// CodeInvalidInput indicates a malformed address, payload field or query.
	CodeInvalidInput Code = "INVALID_INPUT"

	// CodeSignatureInvalid covers every signature failure. Callers cannot
	// distinguish malformed, mismatched and unrecoverable signatures.
	CodeSignatureInvalid Code = "SIGNATURE_INVALID"

	// CodeDuplicateKey indicates an alive record already holds the natural
	// key or content hash.
	CodeDuplicateKey Code = "DUPLICATE_KEY"

	// CodeNotFound indicates no alive record matched.
	CodeNotFound Code = "NOT_FOUND"

	// CodeUpdatingBanned indicates an update on a create/delete-only kind.
	CodeUpdatingBanned Code = "UPDATING_BANNED"

	// CodeOperateFrequently indicates the owner's throttle window is still open.
	CodeOperateFrequently Code = "OPERATE_FREQUENTLY"

	// CodeStorageUnavailable wraps driver and I/O failures.
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"
)

// Error is the typed failure returned by every store and mutation operation.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Kind names the entity kind involved, if any.
	Kind string

	// Err is the underlying cause, if any.
	Err error
}

// Sentinels for errors.Is. A sentinel matches every *Error of the same code.
var (
	ErrInvalidInput       = &Error{Code: CodeInvalidInput, Message: "invalid input"}
	ErrSignatureInvalid   = &Error{Code: CodeSignatureInvalid, Message: "failed to validate signature"}
	ErrDuplicateKey       = &Error{Code: CodeDuplicateKey, Message: "duplicate key"}
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrUpdatingBanned     = &Error{Code: CodeUpdatingBanned, Message: "updating is banned"}
	ErrOperateFrequently  = &Error{Code: CodeOperateFrequently, Message: "operate too frequently"}
	ErrStorageUnavailable = &Error{Code: CodeStorageUnavailable, Message: "storage unavailable"}
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Kind != "" {
		msg = fmt.Sprintf("%s (kind=%s)", msg, e.Kind)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewError creates an error with a formatted message.
func NewError(code Code, kind string, format string, args ...any) *Error {
	return &Error{Code: code, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates an error that preserves err as its cause.
func WrapError(code Code, kind string, message string, err error) *Error {
	return &Error{Code: code, Kind: kind, Message: message, Err: err}
}

// WithKind returns a copy of err tagged with kind when err is an *Error
// without one. Other errors are returned unchanged.
func WithKind(err error, kind string) error {
	var re *Error
	if !errors.As(err, &re) || re.Kind != "" {
		return err
	}
	tagged := *re
	tagged.Kind = kind
	return &tagged
}

// CodeOf extracts the code of err, or "" when err carries none.
func CodeOf(err error) Code {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsNotFound reports whether err is a NOT_FOUND error.
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}
