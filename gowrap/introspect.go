package gowrap

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/tools/go/packages"

	"github.com/chazu/tether/bridge"
)

const valuePkg = "github.com/chazu/tether/value"

const (
	msgIllegalArgs   = `Illegal arguments, should be empty or "args []value.Value"`
	msgIllegalResult = "Illegal return type, should be empty, error, value.Value or (value.Value, error)"
	msgAsync         = "Async functions are not supported"
)

// IntrospectPackage loads the package matching pattern, relative to dir, and
// returns a model of its //tether:import functions. Every invalid
// declaration is reported; the error is then a Diagnostics value and the
// model still lists the valid imports.
func IntrospectPackage(dir, pattern string) (*PackageModel, error) {
	return IntrospectOverlay(dir, pattern, nil)
}

// IntrospectOverlay is IntrospectPackage with file contents, keyed by
// absolute path, that take precedence over the files on disk.
func IntrospectOverlay(dir, pattern string, overlay map[string][]byte) (*PackageModel, error) {
	merged := staleOutputOverlay(dir)
	for path, content := range overlay {
		merged[path] = content
	}
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
			packages.NeedTypes | packages.NeedTypesInfo,
		Dir:     dir,
		Overlay: merged,
	}

	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", pattern, err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found for %s", pattern)
	}
	if len(pkgs[0].Errors) > 0 {
		return nil, fmt.Errorf("package errors: %v", pkgs[0].Errors)
	}

	pkg := pkgs[0]
	if pkg.Types == nil || pkg.TypesInfo == nil {
		return nil, fmt.Errorf("type information not available for %s", pattern)
	}

	model := &PackageModel{
		ImportPath: pkg.PkgPath,
		Name:       pkg.Name,
	}
	if len(pkg.GoFiles) > 0 {
		model.Dir = filepath.Dir(pkg.GoFiles[0])
	}

	var diags Diagnostics
	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				c := findDirective(d.Doc)
				if c == nil {
					continue
				}
				imp, ds := extractImport(pkg.Fset, pkg.TypesInfo, d, c)
				diags = append(diags, ds...)
				if len(ds) == 0 {
					model.Imports = append(model.Imports, imp)
				}
			case *ast.GenDecl:
				if c := findDirective(d.Doc); c != nil {
					diags = append(diags, Diagnostic{Pos: pkg.Fset.Position(c.Slash), Msg: "Only functions can be imported"})
				}
			}
		}
	}

	sort.SliceStable(model.Imports, func(i, j int) bool {
		return before(model.Imports[i].Pos, model.Imports[j].Pos)
	})
	diags = append(diags, checkCollisions(model.Imports)...)

	if len(diags) > 0 {
		sort.SliceStable(diags, func(i, j int) bool { return before(diags[i].Pos, diags[j].Pos) })
		return model, diags
	}
	return model, nil
}

func extractImport(fset *token.FileSet, info *types.Info, fd *ast.FuncDecl, c *ast.Comment) (ImportModel, []Diagnostic) {
	d, diags := parseDirective(fset, c)
	pos := fset.Position(fd.Name.Pos())
	fail := func(at token.Pos, msg string) {
		diags = append(diags, Diagnostic{Pos: fset.Position(at), Msg: msg})
	}

	imp := ImportModel{
		Func:  fd.Name.Name,
		Name:  d.name,
		Scope: d.scope,
		Pos:   pos,
	}
	if imp.Name == "" {
		imp.Name = imp.Func
	}
	if d.name != "" && !bridge.ValidName(d.name) {
		diags = append(diags, Diagnostic{Pos: d.namePos, Msg: fmt.Sprintf("Invalid name %q", d.name)})
	} else if !bridge.ValidName(imp.Name) {
		fail(fd.Name.Pos(), fmt.Sprintf("Invalid name %q", imp.Name))
	}
	if d.scope != "" && !bridge.ValidName(d.scope) {
		diags = append(diags, Diagnostic{Pos: d.scopePos, Msg: fmt.Sprintf("Invalid scope %q", d.scope)})
	}
	if global := bridge.GlobalName(d.scope, imp.Name); bridge.Reserved(global) {
		at := fset.Position(fd.Name.Pos())
		switch {
		case d.scope != "":
			at = d.scopePos
		case d.name != "":
			at = d.namePos
		}
		diags = append(diags, Diagnostic{Pos: at, Msg: fmt.Sprintf("Reserved name %q", global)})
	}

	obj, ok := info.Defs[fd.Name].(*types.Func)
	if !ok {
		fail(fd.Name.Pos(), "Missing type information")
		return imp, diags
	}
	sig := obj.Type().(*types.Signature)

	if sig.Recv() != nil {
		fail(fd.Recv.Pos(), "Methods cannot be imported")
		return imp, diags
	}
	if sig.TypeParams().Len() > 0 {
		fail(fd.Type.TypeParams.Pos(), "Generic functions cannot be imported")
		return imp, diags
	}
	if d.async {
		diags = append(diags, Diagnostic{Pos: d.asyncPos, Msg: msgAsync})
		return imp, diags
	}
	if returnsChan(sig.Results()) {
		fail(fd.Type.Results.Pos(), msgAsync)
		return imp, diags
	}

	params := sig.Params()
	switch {
	case params.Len() == 0:
	case params.Len() == 1 && !sig.Variadic() && isValueSlice(params.At(0).Type()):
		imp.TakesArgs = true
	default:
		fail(fd.Type.Params.Pos(), msgIllegalArgs)
	}

	results := sig.Results()
	switch {
	case results.Len() == 0:
	case results.Len() == 1 && isErrorType(results.At(0).Type()):
		imp.ReturnsErr = true
	case results.Len() == 1 && isValue(results.At(0).Type()):
		imp.Returns = true
	case results.Len() == 2 && isValue(results.At(0).Type()) && isErrorType(results.At(1).Type()):
		imp.Returns = true
		imp.ReturnsErr = true
	default:
		fail(fd.Type.Results.Pos(), msgIllegalResult)
	}

	return imp, diags
}

// checkCollisions applies the registry's rules ahead of time: qualified names
// are unique and a scope never shares a name with a top-level function.
func checkCollisions(imports []ImportModel) []Diagnostic {
	var diags []Diagnostic
	first := map[string]ImportModel{}
	topLevel := map[string]ImportModel{}
	scopes := map[string]ImportModel{}

	for _, imp := range imports {
		q := imp.QualifiedName()
		if prev, dup := first[q]; dup {
			diags = append(diags, Diagnostic{Pos: imp.Pos, Msg: fmt.Sprintf("Duplicate import %q, first declared at %s", q, prev.Pos)})
			continue
		}
		first[q] = imp

		if imp.Scope == "" {
			if prev, clash := scopes[imp.Name]; clash {
				diags = append(diags, Diagnostic{Pos: imp.Pos, Msg: fmt.Sprintf("Import %q collides with scope declared at %s", q, prev.Pos)})
				continue
			}
			topLevel[imp.Name] = imp
			continue
		}
		if prev, clash := topLevel[imp.Scope]; clash {
			diags = append(diags, Diagnostic{Pos: imp.Pos, Msg: fmt.Sprintf("Scope %q collides with import declared at %s", imp.Scope, prev.Pos)})
			continue
		}
		if _, ok := scopes[imp.Scope]; !ok {
			scopes[imp.Scope] = imp
		}
	}
	return diags
}

// staleOutputOverlay blanks every previously generated file in dir, whatever
// its name, so that a package whose annotated functions were renamed or
// removed still type-checks.
func staleOutputOverlay(dir string) map[string][]byte {
	overlay := map[string][]byte{}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return overlay
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return overlay
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".go" {
			continue
		}
		path := filepath.Join(abs, e.Name())
		data, err := os.ReadFile(path)
		if err != nil || !bytes.HasPrefix(data, generatedPrefix) {
			continue
		}
		f, err := parser.ParseFile(token.NewFileSet(), path, data, parser.PackageClauseOnly)
		if err != nil {
			continue
		}
		overlay[path] = []byte("package " + f.Name.Name + "\n")
	}
	return overlay
}

var generatedPrefix = []byte("// " + HeaderComment)

func isValue(t types.Type) bool {
	named, ok := types.Unalias(t).(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == valuePkg && obj.Name() == "Value"
}

func isValueSlice(t types.Type) bool {
	s, ok := types.Unalias(t).(*types.Slice)
	return ok && isValue(s.Elem())
}

func isErrorType(t types.Type) bool {
	return types.Identical(t, types.Universe.Lookup("error").Type())
}

func returnsChan(results *types.Tuple) bool {
	for i := 0; i < results.Len(); i++ {
		if _, ok := results.At(i).Type().Underlying().(*types.Chan); ok {
			return true
		}
	}
	return false
}

func before(a, b token.Position) bool {
	if a.Filename != b.Filename {
		return a.Filename < b.Filename
	}
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Column < b.Column
}
