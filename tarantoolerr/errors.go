/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package tarantoolerr defines the error taxonomy raised by the tarantool
// client driver: connection-state errors, server-reported database errors,
// client-side schema resolution errors, and request-lifecycle errors
// (timeout, cancellation, type/value misuse).
package tarantoolerr

import (
	"errors"
	"fmt"
)

// Sentinel errors that callers can compare against with errors.Is.
var (
	// ErrNotConnected is returned when a request is attempted while the
	// connection is not in the CONNECTED state, and used to fail every
	// in-flight request when the socket closes.
	ErrNotConnected = errors.New("tarantool: not connected")

	// ErrCancelled is returned to a waiter whose request was cancelled
	// by the caller before a response (or timeout) arrived.
	ErrCancelled = errors.New("tarantool: request cancelled")

	// ErrStreamClosed is returned by operations on a Stream or
	// PreparedStatement after Commit/Rollback/Unprepare has run.
	ErrStreamClosed = errors.New("tarantool: stream closed")

	// ErrPushIterationDone is returned by PushIterator.Next once the
	// terminal response for the originating request has been observed
	// and the push queue has drained.
	ErrPushIterationDone = errors.New("tarantool: push iteration complete")

	// ErrFeatureUnsupported is returned when a feature (streams, SQL) is
	// used against a server version that predates it.
	ErrFeatureUnsupported = errors.New("tarantool: feature unsupported by server version")
)

// ConnectionLost represents a transport-level failure (OS error, EOF)
// observed while reading or writing the socket.
type ConnectionLost struct {
	Err error
}

func (e *ConnectionLost) Error() string {
	if e.Err == nil {
		return "tarantool: connection lost"
	}
	return fmt.Sprintf("tarantool: connection lost: %v", e.Err)
}

func (e *ConnectionLost) Unwrap() error { return e.Err }

// NewConnectionLost wraps a transport error as a ConnectionLost.
func NewConnectionLost(err error) *ConnectionLost {
	return &ConnectionLost{Err: err}
}

// Timeout is returned when a request or connect attempt exceeds its
// configured deadline.
type Timeout struct {
	Op string // "connect", "request", "schema fetch", ...
}

func (e *Timeout) Error() string {
	if e.Op == "" {
		return "tarantool: timeout"
	}
	return fmt.Sprintf("tarantool: %s timed out", e.Op)
}

// ErrorFrame is one stack frame of a server-side ErrorDescriptor (the
// MP_ERROR extension payload), e.g. a Lua traceback entry.
type ErrorFrame struct {
	Type    string
	File    string
	Line    uint64
	Message string
	Errno   uint64
	Code    uint64
	Fields  map[string]interface{}
}

// ErrorDescriptor is the decoded form of Tarantool's MP_ERROR extension:
// a stack of frames describing a server-side error in detail. It is
// attached to DatabaseError when the server negotiated the extended
// error protocol, and can also appear as an ordinary returned value
// when a stored procedure returns an error object.
type ErrorDescriptor struct {
	Stack []ErrorFrame
}

func (d ErrorDescriptor) String() string {
	if len(d.Stack) == 0 {
		return ""
	}
	return d.Stack[0].Message
}

// DatabaseError is a server-reported error: a numeric return code (the
// low 15 bits of the IPROTO response-type field) and a human-readable
// message, optionally enriched with a full ErrorDescriptor trace.
type DatabaseError struct {
	Code          uint32
	Message       string
	SchemaVersion uint64
	Descriptor    *ErrorDescriptor
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("tarantool: database error (code=%d): %s", e.Code, e.Message)
}

// Is reports whether target is a *DatabaseError with the same Code, so
// errors.Is(err, &DatabaseError{Code: c}) matches by Tarantool error code
// regardless of message.
func (e *DatabaseError) Is(target error) bool {
	var o *DatabaseError
	if errors.As(target, &o) {
		return e.Code == o.Code
	}
	return false
}

// SchemaError is a client-side failure to resolve a space, index, or
// field name against the cached Schema.
type SchemaError struct {
	Kind string // "space", "index", "field"
	Name string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("tarantool: no such %s: %q", e.Kind, e.Name)
}

// NewSchemaError builds a SchemaError for the given kind ("space",
// "index", "field") and name.
func NewSchemaError(kind, name string) *SchemaError {
	return &SchemaError{Kind: kind, Name: name}
}

// TypeError reports a caller misuse involving an unsupported or
// mismatched Go type (an unencodable value, an invalid iterator
// argument, a tuple-as-map without a known schema, ...).
type TypeError struct {
	Context string
	Value   interface{}
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("tarantool: type error in %s: unsupported value of type %T", e.Context, e.Value)
}

// ValueError reports a caller misuse involving a structurally invalid
// value (a malformed update operation, a splice op with the wrong
// arity, an out-of-range iterator code, ...).
type ValueError struct {
	Context string
	Reason  string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("tarantool: invalid value in %s: %s", e.Context, e.Reason)
}
