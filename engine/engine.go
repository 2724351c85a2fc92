// Package engine defines the embedded script engine a session drives.
// The engine owns parsing, execution, module resolution and the event
// loop; the bridge only registers native callables, executes source, and
// loads modules through this interface.
package engine

import (
	"context"

	"github.com/chazu/tether/value"
)

// NativeFunc receives the {args: [...]} payload built by the glue and
// returns the call's result. A returned error is raised in the script.
type NativeFunc func(payload value.Value) (value.Value, error)

// Engine is one embedded engine instance. Implementations are not safe for
// concurrent use: every method must be called from the goroutine that
// drives the session.
type Engine interface {
	// RegisterNative makes fn reachable from script through the native-call
	// primitive under name. Duplicate names are rejected.
	RegisterNative(name string, fn NativeFunc) error

	// NativeCallExpr is the JS expression of the synchronous native-call
	// primitive, invoked as <expr>(name, {args}).
	NativeCallExpr() string

	// Execute runs classic-script source in the global scope.
	Execute(ctx context.Context, filename, source string) error

	// LoadModule resolves, loads and evaluates the module at path, then
	// drains pending engine work before returning.
	LoadModule(ctx context.Context, path string) error

	// Close releases the engine. It may be called more than once.
	Close() error
}
