// Package errors provides error handling for marquee.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints surfaced to CLI users
//
// Usage:
//
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	return errors.WithHint(err, "check the percent-encoding of the request path")
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Sentinel errors shared across marquee.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")

	// ErrMalformedRequest indicates a request path or query that cannot be decoded.
	// It is the only fatal outcome of request parsing.
	ErrMalformedRequest = New("malformed request")

	// ErrPluginNotFound indicates neither the requested effect nor "default" is registered
	ErrPluginNotFound = New("effect not found")

	// ErrMissingID indicates a plugin was registered without an id
	ErrMissingID = New("plugin has no id")

	// ErrIncompatible indicates a plugin requires a different plugin API version
	ErrIncompatible = New("plugin incompatible")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound or ErrPluginNotFound.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	return IsAny(err, ErrNotFound, ErrPluginNotFound)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest or ErrMalformedRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && IsAny(err, ErrInvalidRequest, ErrMalformedRequest)
}

// WrapMalformed marks err as a malformed-request error with context
func WrapMalformed(err error, context string) error {
	return Wrap(Mark(err, ErrMalformedRequest), context)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}
