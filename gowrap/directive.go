package gowrap

import (
	"fmt"
	"go/ast"
	"go/scanner"
	"go/token"
	"strconv"
	"strings"
)

// Directive marks a function for import.
const Directive = "//tether:import"

// Diagnostic is a problem found at a specific source position.
type Diagnostic struct {
	Pos token.Position
	Msg string
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s", d.Pos, d.Msg)
}

// Diagnostics collects every problem found in a package. It is returned as
// the error from IntrospectPackage.
type Diagnostics []Diagnostic

func (ds Diagnostics) Error() string {
	lines := make([]string, len(ds))
	for i, d := range ds {
		lines[i] = d.Error()
	}
	return strings.Join(lines, "\n")
}

type directive struct {
	name  string
	scope string
	async bool
	pos   token.Position

	// Positions of the option values, for diagnostics.
	namePos  token.Position
	scopePos token.Position
	asyncPos token.Position
}

// isDirective reports whether c is a //tether:import comment. The directive
// must be followed by whitespace or end the comment.
func isDirective(c *ast.Comment) bool {
	rest, ok := strings.CutPrefix(c.Text, Directive)
	if !ok {
		return false
	}
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}

// findDirective returns the first directive in a doc comment group.
func findDirective(doc *ast.CommentGroup) *ast.Comment {
	if doc == nil {
		return nil
	}
	for _, c := range doc.List {
		if isDirective(c) {
			return c
		}
	}
	return nil
}

// parseDirective reads the options of a directive comment:
//
//	//tether:import name="read", scope="Stdin"
//	//tether:import async
//
// Commas between options are optional.
func parseDirective(fset *token.FileSet, c *ast.Comment) (directive, []Diagnostic) {
	d := directive{pos: fset.Position(c.Slash)}
	src := []byte(c.Text[len(Directive):])

	// Positions in src are mapped back onto the real file.
	position := func(file *token.File, p token.Pos) token.Position {
		return fset.Position(c.Slash + token.Pos(len(Directive)+file.Offset(p)))
	}

	var diags []Diagnostic
	local := token.NewFileSet()
	file := local.AddFile("", -1, len(src))
	var s scanner.Scanner
	s.Init(file, src, func(pos token.Position, msg string) {
		diags = append(diags, Diagnostic{
			Pos: fset.Position(c.Slash + token.Pos(len(Directive)+pos.Offset)),
			Msg: "Malformed directive: " + msg,
		})
	}, 0)

	seen := map[string]bool{}
	for {
		pos, tok, lit := s.Scan()
		switch {
		case tok == token.EOF:
			return d, diags
		case tok == token.COMMA, tok == token.SEMICOLON && lit == "\n":
			continue
		case tok != token.IDENT:
			diags = append(diags, Diagnostic{Pos: position(file, pos), Msg: fmt.Sprintf("Unsupported option %s", tokenText(tok, lit))})
			return d, diags
		}

		option := lit
		if seen[option] {
			diags = append(diags, Diagnostic{Pos: position(file, pos), Msg: fmt.Sprintf("Duplicate option %q", option)})
		}
		seen[option] = true

		switch option {
		case "async":
			d.async = true
			d.asyncPos = position(file, pos)
			continue
		case "name", "scope":
		default:
			diags = append(diags, Diagnostic{Pos: position(file, pos), Msg: fmt.Sprintf("Unsupported option %q", option)})
			return d, diags
		}

		pos, tok, lit = s.Scan()
		if tok != token.ASSIGN {
			diags = append(diags, Diagnostic{Pos: position(file, pos), Msg: fmt.Sprintf("Unsupported value for %q, expected a string literal", option)})
			return d, diags
		}
		pos, tok, lit = s.Scan()
		if tok != token.STRING {
			diags = append(diags, Diagnostic{Pos: position(file, pos), Msg: fmt.Sprintf("Unsupported value for %q, expected a string literal", option)})
			return d, diags
		}
		v, err := strconv.Unquote(lit)
		if err != nil {
			diags = append(diags, Diagnostic{Pos: position(file, pos), Msg: fmt.Sprintf("Unsupported value for %q: %v", option, err)})
			return d, diags
		}
		if option == "name" {
			d.name, d.namePos = v, position(file, pos)
		} else {
			d.scope, d.scopePos = v, position(file, pos)
		}
	}
}

func tokenText(tok token.Token, lit string) string {
	if lit != "" {
		return strconv.Quote(lit)
	}
	return strconv.Quote(tok.String())
}
