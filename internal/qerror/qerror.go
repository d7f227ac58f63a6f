// Package qerror defines the typed errors the query layer reports back to
// clients. Every code maps to a 400-class response in the calling layer.
package qerror

import (
	"errors"
	"fmt"
)

type Code string

const (
	// CodeInvalidWhere marks a WHERE parameter that is not valid JSON or
	// not an object-shaped filter tree.
	CodeInvalidWhere Code = "invalid_where"
	// CodeUnsupportedOperator marks an operator key outside the fixed set.
	CodeUnsupportedOperator Code = "unsupported_operator"
	// CodeInvalidOperand marks an operand whose shape does not match the
	// operator's contract.
	CodeInvalidOperand Code = "invalid_operand"
	// CodeInvalidRegex marks a $regex operand that does not compile.
	CodeInvalidRegex Code = "invalid_regex"
	// CodeInvalidPagination marks a non-positive limit or page.
	CodeInvalidPagination Code = "invalid_pagination"
)

// Error carries a client-facing message under a stable code.
type Error struct {
	Code  Code
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// HasCode reports whether err (or anything it wraps) is a query error with
// the given code.
func HasCode(err error, code Code) bool {
	var qe *Error
	return errors.As(err, &qe) && qe.Code == code
}

// IsClientError reports whether err belongs to the query-error taxonomy at
// all, i.e. should surface as a 400 rather than a 500.
func IsClientError(err error) bool {
	var qe *Error
	return errors.As(err, &qe)
}
