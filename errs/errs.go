// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package errs implements the closed error-kind enumeration that every
// fallible call in fieldmesh returns, so callers can map a single
// vocabulary onto their own reporting mechanism instead of matching on
// per-package sentinel values.
package errs

import "fmt"

// Kind is the closed set of error kinds a fieldmesh call can fail with.
type Kind uint8

const (
	OK Kind = iota
	InvalidArg
	NoMemory
	Timeout
	Busy
	NotFound
	AlreadyExists
	NoQuorum
	Inhibited
	NeighborLost
	FieldExpired
	HALFailure
)

func (k Kind) String() string {
	switch k {
	case OK:
		return "OK"
	case InvalidArg:
		return "INVALID_ARG"
	case NoMemory:
		return "NO_MEMORY"
	case Timeout:
		return "TIMEOUT"
	case Busy:
		return "BUSY"
	case NotFound:
		return "NOT_FOUND"
	case AlreadyExists:
		return "ALREADY_EXISTS"
	case NoQuorum:
		return "NO_QUORUM"
	case Inhibited:
		return "INHIBITED"
	case NeighborLost:
		return "NEIGHBOR_LOST"
	case FieldExpired:
		return "FIELD_EXPIRED"
	case HALFailure:
		return "HAL_FAILURE"
	default:
		return "UNKNOWN"
	}
}

// Error pairs a Kind with the operation that produced it and an
// optional wrapped cause, so errors.Is/errors.As keep working while
// every caller can still switch on Kind().
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an *Error with no wrapped cause.
func New(kind Kind, op string) error {
	return &Error{Kind: kind, Op: op}
}

// Wrap returns an *Error wrapping err under kind, attributed to op.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind from err, returning OK if err is nil and
// HALFailure if err does not carry a Kind (an unexpected error class
// escaped an engine boundary).
func KindOf(err error) Kind {
	if err == nil {
		return OK
	}
	var fe *Error
	if as(err, &fe) {
		return fe.Kind
	}
	return HALFailure
}

// as walks err's Unwrap chain looking for an *Error, a hand-rolled
// equivalent of errors.As for the single call site above.
func as(err error, target **Error) bool {
	for err != nil {
		if fe, ok := err.(*Error); ok {
			*target = fe
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
