// Package errors defines the failure kinds surfaced by the AMM core and its ledger integration.
//
// Every failure is terminal for the operation that produced it. Callers branch on the kind with
// errors.Is against the sentinel values below, e.g. to raise a slippage tolerance after
// OutputTooSmall or to abandon a deposit after DepositTooSmall.
package errors

import (
	"errors"
	"fmt"
)

// Kind identifies a class of failure.
type Kind string

const (
	KindInvalidFee         Kind = "INVALID_FEE"
	KindInvalidMint        Kind = "INVALID_MINT"
	KindDepositTooSmall    Kind = "DEPOSIT_TOO_SMALL"
	KindOutputTooSmall     Kind = "OUTPUT_TOO_SMALL"
	KindInvariantViolated  Kind = "INVARIANT_VIOLATED"
	KindArithmeticOverflow Kind = "ARITHMETIC_OVERFLOW"
	KindDivisionByZero     Kind = "DIVISION_BY_ZERO"
	KindEmptyPool          Kind = "EMPTY_POOL"

	// Collaborator kinds raised by the ledger layer, never by the core math.
	KindInsufficientFunds Kind = "INSUFFICIENT_FUNDS"
	KindAccountMismatch   Kind = "ACCOUNT_MISMATCH"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindNotFound          Kind = "NOT_FOUND"
	KindAlreadyExists     Kind = "ALREADY_EXISTS"
)

var messages = map[Kind]string{
	KindInvalidFee:         "Invalid fee value",
	KindInvalidMint:        "Invalid mint for the pool",
	KindDepositTooSmall:    "Depositing too little liquidity",
	KindOutputTooSmall:     "Output is below the minimum expected",
	KindInvariantViolated:  "Invariant does not hold",
	KindArithmeticOverflow: "Arithmetic overflow",
	KindDivisionByZero:     "Division by zero",
	KindEmptyPool:          "Pool has no liquidity",
	KindInsufficientFunds:  "Insufficient funds",
	KindAccountMismatch:    "Account does not match the pool",
	KindUnauthorized:       "Missing or invalid authority",
	KindNotFound:           "Not found",
	KindAlreadyExists:      "Already exists",
}

// Sentinels for errors.Is.
var (
	ErrInvalidFee         = &Error{Kind: KindInvalidFee}
	ErrInvalidMint        = &Error{Kind: KindInvalidMint}
	ErrDepositTooSmall    = &Error{Kind: KindDepositTooSmall}
	ErrOutputTooSmall     = &Error{Kind: KindOutputTooSmall}
	ErrInvariantViolated  = &Error{Kind: KindInvariantViolated}
	ErrArithmeticOverflow = &Error{Kind: KindArithmeticOverflow}
	ErrDivisionByZero     = &Error{Kind: KindDivisionByZero}
	ErrEmptyPool          = &Error{Kind: KindEmptyPool}
	ErrInsufficientFunds  = &Error{Kind: KindInsufficientFunds}
	ErrAccountMismatch    = &Error{Kind: KindAccountMismatch}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrAlreadyExists      = &Error{Kind: KindAlreadyExists}
)

// Error is a kind-coded failure.
type Error struct {
	// Kind is the failure class; two errors with the same Kind match under errors.Is.
	Kind Kind

	// Message is a human-readable description. Empty means the kind's default text.
	Message string

	// Cause is the underlying error, if any.
	Cause error

	// Details carries the operands that produced the failure.
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = messages[e.Kind]
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithDetails adds details to the error.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// New creates an Error of the given kind with the default message.
func New(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Newf creates an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// DefaultMessage returns the default text for a kind.
func DefaultMessage(kind Kind) string {
	return messages[kind]
}
