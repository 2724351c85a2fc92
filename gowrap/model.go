// Package gowrap is the build-time half of the bridge. It finds Go functions
// annotated with a //tether:import directive, checks that their signatures
// fit one of the supported shapes, and generates registration factories for
// them.
//
//	//tether:import name="read" scope="Stdin"
//	func readFromStdin() (value.Value, error) { ... }
//
// becomes
//
//	func readFromStdinImport() bridge.ImportedFunction {
//		return bridge.MustNew(bridge.Config{Name: "read", Scope: "Stdin"}, readFromStdin)
//	}
package gowrap

import "go/token"

// PackageModel is the set of annotated functions found in one package.
type PackageModel struct {
	ImportPath string
	Name       string // package name (e.g., "natives")
	Dir        string // directory holding the package sources
	Imports    []ImportModel
}

// ImportModel is one validated //tether:import declaration.
type ImportModel struct {
	Func       string // Go function name
	Name       string // script-visible name; defaults to Func
	Scope      string // "" for top level
	TakesArgs  bool   // func(args []value.Value)
	Returns    bool   // yields a value.Value
	ReturnsErr bool   // last result is error
	Pos        token.Position
}

// QualifiedName is the registered name, "Scope.name" or "name".
func (m ImportModel) QualifiedName() string {
	if m.Scope == "" {
		return m.Name
	}
	return m.Scope + "." + m.Name
}
