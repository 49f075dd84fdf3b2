// Copyright (c) 2024 The Empower1 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tx

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a kind of error.
type ErrorCode int

const (
	// ErrValidation indicates that a transaction parameter is
	// structurally invalid: a missing kind-specific field, a malformed
	// public key, or group parameters that cannot hold.
	ErrValidation ErrorCode = iota

	// ErrMode indicates an operation was invoked on a transaction in
	// the wrong authorization mode, such as a group signature append on
	// a single-signer transaction.
	ErrMode

	// ErrUnauthorizedSigner indicates the signing key is not a member
	// of the transaction's authorized key set.
	ErrUnauthorizedSigner

	// ErrContentMismatch indicates the canonical digest recomputed from
	// the transaction's content no longer equals the identifier fixed
	// when signing began.  The content was altered between signing
	// sessions.
	ErrContentMismatch

	// ErrCrypto indicates a failure in a cryptographic primitive, such
	// as the signer returning an error or a stored public key that does
	// not decode to a curve point.
	ErrCrypto

	// ErrSerialization indicates the transaction could not be encoded
	// to or decoded from one of its serialized forms.
	ErrSerialization

	// ErrRecord indicates a pending transaction record could not be
	// read from or written to disk.
	ErrRecord

	// lastErr is used for testing, making it possible to iterate over
	// the error codes in order to check that they all have proper
	// translations in errorCodeStrings.
	lastErr
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrValidation:         "ErrValidation",
	ErrMode:               "ErrMode",
	ErrUnauthorizedSigner: "ErrUnauthorizedSigner",
	ErrContentMismatch:    "ErrContentMismatch",
	ErrCrypto:             "ErrCrypto",
	ErrSerialization:      "ErrSerialization",
	ErrRecord:             "ErrRecord",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error is a typed error for all errors arising during the authoring and
// authorization of a transaction.
type Error struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
	Err         error     // Underlying error
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	if e.Err != nil {
		return e.Description + ": " + e.Err.Error()
	}
	return e.Description
}

// Unwrap returns the underlying error, if any.
func (e Error) Unwrap() error {
	return e.Err
}

// newError creates a new Error.
func newError(c ErrorCode, desc string, err error) Error {
	return Error{ErrorCode: c, Description: desc, Err: err}
}

// IsError returns whether err is an Error with a matching error code.
func IsError(err error, code ErrorCode) bool {
	var e Error
	return errors.As(err, &e) && e.ErrorCode == code
}
