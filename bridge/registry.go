package bridge

import (
	"fmt"
)

// Registry is the ordered set of imports for one session. It is mutable
// until Freeze, and read-only afterwards.
//
// Collisions are rejected rather than resolved: two imports with the same
// qualified name, or a top-level import sharing its name with a scope,
// would overwrite each other in the generated glue.
type Registry struct {
	functions []ImportedFunction
	byName    map[string]int
	scopes    []string
	scopeSet  map[string]struct{}
	frozen    bool
}

func NewRegistry() *Registry {
	return &Registry{
		byName:   make(map[string]int),
		scopeSet: make(map[string]struct{}),
	}
}

// Register appends f, recording its scope the first time it is seen.
func (r *Registry) Register(f ImportedFunction) error {
	qualified := f.QualifiedName()
	if r.frozen {
		return &Error{Kind: KindProtocol, Op: "register", Name: qualified, Err: ErrFinished}
	}
	if f.callable == nil {
		return &Error{Kind: KindConfig, Op: "register", Name: qualified,
			Err: fmt.Errorf("%w: zero ImportedFunction", ErrUnsupportedShape)}
	}
	if _, dup := r.byName[qualified]; dup {
		return &Error{Kind: KindConfig, Op: "register", Name: qualified, Err: ErrDuplicateImport}
	}
	if f.scope == "" {
		if _, clash := r.scopeSet[f.name]; clash {
			return &Error{Kind: KindConfig, Op: "register", Name: qualified,
				Err: fmt.Errorf("%w: %q is already a scope", ErrDuplicateImport, f.name)}
		}
	} else if _, seen := r.scopeSet[f.scope]; !seen {
		if i, clash := r.byName[f.scope]; clash && r.functions[i].scope == "" {
			return &Error{Kind: KindConfig, Op: "register", Name: qualified,
				Err: fmt.Errorf("%w: scope %q is already a top-level function", ErrDuplicateImport, f.scope)}
		}
		r.scopeSet[f.scope] = struct{}{}
		r.scopes = append(r.scopes, f.scope)
	}

	r.byName[qualified] = len(r.functions)
	r.functions = append(r.functions, f)
	return nil
}

// Freeze makes the registry read-only. Freezing twice is an error.
func (r *Registry) Freeze() error {
	if r.frozen {
		return &Error{Kind: KindProtocol, Op: "finish", Err: ErrFinished}
	}
	r.frozen = true
	return nil
}

func (r *Registry) Frozen() bool { return r.frozen }

// Functions returns the imports in registration order.
func (r *Registry) Functions() []ImportedFunction {
	out := make([]ImportedFunction, len(r.functions))
	copy(out, r.functions)
	return out
}

// Scopes returns declared scopes in first-declared order.
func (r *Registry) Scopes() []string {
	out := make([]string, len(r.scopes))
	copy(out, r.scopes)
	return out
}

// Lookup finds an import by qualified name.
func (r *Registry) Lookup(qualified string) (ImportedFunction, bool) {
	i, ok := r.byName[qualified]
	if !ok {
		return ImportedFunction{}, false
	}
	return r.functions[i], true
}

func (r *Registry) Len() int { return len(r.functions) }
