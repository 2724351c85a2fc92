package bridge

import (
	"errors"
	"fmt"
)

// Kind classifies bridge failures by where they arise.
type Kind int

const (
	// KindConfig is a bad import declaration: shape, name, scope or async.
	KindConfig Kind = iota + 1
	// KindSetup is a fatal failure while building a session.
	KindSetup
	// KindCall is a business error returned by a native function.
	KindCall
	// KindModule is a failure loading or evaluating a script module.
	KindModule
	// KindProtocol is a violated bridge invariant: malformed payloads,
	// unrepresentable values, registry use after finish.
	KindProtocol
	// KindInternal is a native fault (panic) caught at the call boundary.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindSetup:
		return "setup"
	case KindCall:
		return "call"
	case KindModule:
		return "module"
	case KindProtocol:
		return "protocol"
	case KindInternal:
		return "internal"
	}
	return "unknown"
}

var (
	ErrInvalidName      = errors.New("invalid name")
	ErrInvalidScope     = errors.New("invalid scope")
	ErrReservedName     = errors.New("reserved global name")
	ErrUnsupportedShape = errors.New("unsupported function shape")
	ErrAsyncUnsupported = errors.New("asynchronous native functions are not supported")
	ErrDuplicateImport  = errors.New("duplicate import")
	ErrFinished         = errors.New("registration already finished")
	ErrUnknownFunction  = errors.New("unknown native function")
)

// Error is the error type returned across the bridge.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "register", "load"
	Name string // qualified import name or module path, if any
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + " error"
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Name != "" {
		msg += " in " + e.Name
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an *Error of the given kind with a formatted cause.
func Errorf(kind Kind, op, name, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Name: name, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of the outermost *Error in err's chain, or zero
// if there is none.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return 0
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
