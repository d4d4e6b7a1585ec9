package core

import "errors"

// ErrClosedClient is returned by every operation after Close.
var ErrClosedClient = errors.New("client is closed")

// ErrorKind classifies a command failure, mirroring the native core's error
// taxonomy.
type ErrorKind int

const (
	// KindUnspecified covers server errors and anything unclassified.
	KindUnspecified ErrorKind = iota
	// KindTimeout marks requests that exceeded the request timeout.
	KindTimeout
	// KindDisconnect marks failures caused by a dropped connection.
	KindDisconnect
	// KindExecAbort marks transactions aborted by the server.
	KindExecAbort
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindDisconnect:
		return "disconnect"
	case KindExecAbort:
		return "exec abort"
	}
	return "unspecified"
}

// CommandError is a failure reported by the core for a single request.
type CommandError struct {
	Kind ErrorKind
	Msg  string

	cause error
}

func (e *CommandError) Error() string { return e.Msg }

// Unwrap exposes the underlying failure so errors.Is/As keep working
// through the classification layer.
func (e *CommandError) Unwrap() error { return e.cause }

// NewCommandError builds a CommandError.
func NewCommandError(kind ErrorKind, msg string) *CommandError {
	return &CommandError{Kind: kind, Msg: msg}
}

// WrapError classifies an existing error without losing it.
func WrapError(kind ErrorKind, err error) *CommandError {
	return &CommandError{Kind: kind, Msg: err.Error(), cause: err}
}

// KindOf extracts the error kind from err, defaulting to KindUnspecified.
func KindOf(err error) ErrorKind {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnspecified
}
