package bridge

import (
	"fmt"
	"unicode"

	"github.com/chazu/tether/value"
)

// Config names an import and places it in the script namespace.
type Config struct {
	// Name is the script-visible function name. Required.
	Name string
	// Scope is the namespace object the function is attached to. Empty
	// means the function is attached to the global object.
	Scope string
	// Async requests a non-blocking import. It is always rejected.
	Async bool
}

// ImportedFunction is a native function ready for registration.
// It is immutable once built.
type ImportedFunction struct {
	name     string
	scope    string
	shape    Shape
	callable Callable
}

// Factory produces one ImportedFunction. Generated import code exposes
// one Factory per annotated function.
type Factory func() ImportedFunction

// New validates cfg and adapts fn into an ImportedFunction.
func New(cfg Config, fn any) (ImportedFunction, error) {
	qualified := qualify(cfg.Scope, cfg.Name)
	if cfg.Async {
		return ImportedFunction{}, &Error{Kind: KindConfig, Op: "import", Name: qualified, Err: ErrAsyncUnsupported}
	}
	if !ValidName(cfg.Name) {
		return ImportedFunction{}, &Error{Kind: KindConfig, Op: "import", Name: qualified,
			Err: fmt.Errorf("%w %q", ErrInvalidName, cfg.Name)}
	}
	if cfg.Scope != "" && !ValidName(cfg.Scope) {
		return ImportedFunction{}, &Error{Kind: KindConfig, Op: "import", Name: qualified,
			Err: fmt.Errorf("%w %q", ErrInvalidScope, cfg.Scope)}
	}
	if global := GlobalName(cfg.Scope, cfg.Name); Reserved(global) {
		return ImportedFunction{}, &Error{Kind: KindConfig, Op: "import", Name: qualified,
			Err: fmt.Errorf("%w %q", ErrReservedName, global)}
	}
	callable, shape, err := Adapt(fn)
	if err != nil {
		return ImportedFunction{}, &Error{Kind: KindConfig, Op: "import", Name: qualified, Err: err}
	}
	return ImportedFunction{
		name:     cfg.Name,
		scope:    cfg.Scope,
		shape:    shape,
		callable: callable,
	}, nil
}

// MustNew is like New but panics on error. Generated code uses it for
// declarations that were already checked at build time.
func MustNew(cfg Config, fn any) ImportedFunction {
	f, err := New(cfg, fn)
	if err != nil {
		panic(err)
	}
	return f
}

// ValidName reports whether s can be used as an import name or scope:
// non-empty, ASCII only, no whitespace and no '.', which separates scope
// from name in qualified names.
func ValidName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || unicode.IsSpace(r) || r == '.' {
			return false
		}
	}
	return true
}

// NativeGlobal is the global holding the native-call primitive.
const NativeGlobal = "__tether"

// reserved are globals the glue cannot assign.
var reserved = map[string]bool{
	NativeGlobal: true,
	"globalThis": true,
	"undefined":  true,
	"NaN":        true,
	"Infinity":   true,
}

// Reserved reports whether a scope or top-level name would replace a
// global the bridge depends on.
func Reserved(global string) bool { return reserved[global] }

// GlobalName is the global an import occupies: its scope, or its name when
// it has none.
func GlobalName(scope, name string) string {
	if scope != "" {
		return scope
	}
	return name
}

func (f ImportedFunction) Name() string { return f.name }

// Scope returns the namespace, or "" for a top-level function.
func (f ImportedFunction) Scope() string { return f.scope }

func (f ImportedFunction) Shape() Shape { return f.shape }

// QualifiedName is the unique registered name: "Scope.name" or "name".
func (f ImportedFunction) QualifiedName() string { return qualify(f.scope, f.name) }

// Callable returns the uniform adapter.
func (f ImportedFunction) Callable() Callable { return f.callable }

// Invoke runs the adapter with the given arguments.
func (f ImportedFunction) Invoke(args []value.Value) (value.Value, error) {
	if f.callable == nil {
		return value.Null(), &Error{Kind: KindProtocol, Op: "invoke", Name: f.QualifiedName(), Err: ErrUnknownFunction}
	}
	return f.callable(args)
}

func qualify(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + "." + name
}
