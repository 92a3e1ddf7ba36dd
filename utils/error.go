package utils

import (
	"context"
	"errors"
)

// ErrorKind is the stable, machine-readable failure category reported to
// callers. The transport layer maps kinds to status codes; messages are for
// humans only.
type ErrorKind string

const (
	ErrorKindValidation       ErrorKind = "ValidationError"
	ErrorKindNotFound         ErrorKind = "NotFound"
	ErrorKindConflict         ErrorKind = "Conflict"
	ErrorKindReferentialBlock ErrorKind = "ReferentialBlock"
	ErrorKindStorageFailure   ErrorKind = "StorageFailure"
	ErrorKindTimeout          ErrorKind = "Timeout"
)

// Well-known validation codes surfaced alongside ErrorKindValidation.
const (
	CodePaymentExceedsRemaining = "PaymentExceedsRemaining"
	CodeRefundExceedsPaidAmount = "RefundExceedsPaidAmount"
	CodePayAmountNonZero        = "PayAmountNonZero"
)

type KindError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *KindError) Error() string {
	return e.Message
}

func (e *KindError) Unwrap() error {
	return e.Err
}

func ValidationError(message string) error {
	return &KindError{Kind: ErrorKindValidation, Message: message}
}

func ValidationErrorCode(code string, message string) error {
	return &KindError{Kind: ErrorKindValidation, Code: code, Message: message}
}

func NotFoundError(message string) error {
	return &KindError{Kind: ErrorKindNotFound, Message: message}
}

func ConflictError(message string) error {
	return &KindError{Kind: ErrorKindConflict, Message: message}
}

func ReferentialBlockError(message string) error {
	return &KindError{Kind: ErrorKindReferentialBlock, Message: message}
}

// StorageError wraps an infrastructure failure. The underlying driver error is
// kept for logs but never used as the primary signal.
func StorageError(message string, err error) error {
	return &KindError{Kind: ErrorKindStorageFailure, Message: message, Err: err}
}

var ErrorRecordNotFound = NotFoundError("record not found")

// KindOf classifies any error for the caller. Unclassified errors are storage
// failures; context deadline expiry is a Timeout (the transaction has already
// been rolled back by then).
func KindOf(err error) ErrorKind {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}
	return ErrorKindStorageFailure
}

// CodeOf returns the validation code, if any.
func CodeOf(err error) string {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Code
	}
	return ""
}
