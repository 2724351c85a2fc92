package gowrap

import (
	"errors"
	"strings"
	"testing"
)

func TestIntrospectPackage_Good(t *testing.T) {
	model, err := IntrospectPackage("testdata/good", ".")
	if err != nil {
		t.Fatalf("IntrospectPackage(good): %v", err)
	}

	if model.Name != "good" {
		t.Errorf("expected package name 'good', got %q", model.Name)
	}
	if model.ImportPath != "github.com/chazu/tether/gowrap/testdata/good" {
		t.Errorf("unexpected import path %q", model.ImportPath)
	}

	want := []ImportModel{
		{Func: "readFromStdin", Name: "read", Scope: "Stdin", Returns: true, ReturnsErr: true},
		{Func: "sayHello", Name: "sayHello", Scope: "Stdout", TakesArgs: true, ReturnsErr: true},
		{Func: "echo", Name: "echo", TakesArgs: true, Returns: true},
		{Func: "ping", Name: "ping", Scope: "Env"},
	}
	if len(model.Imports) != len(want) {
		t.Fatalf("expected %d imports, got %d: %+v", len(want), len(model.Imports), model.Imports)
	}
	for i, w := range want {
		got := model.Imports[i]
		got.Pos = w.Pos
		if got != w {
			t.Errorf("import %d = %+v, want %+v", i, got, w)
		}
	}
	if q := model.Imports[0].QualifiedName(); q != "Stdin.read" {
		t.Errorf("QualifiedName = %q", q)
	}
	if model.Imports[0].Pos.Line != 10 {
		t.Errorf("readFromStdin reported at line %d, want 10", model.Imports[0].Pos.Line)
	}
}

func TestIntrospectPackage_Diagnostics(t *testing.T) {
	_, err := IntrospectPackage("testdata/bad", ".")
	var diags Diagnostics
	if !errors.As(err, &diags) {
		t.Fatalf("expected Diagnostics, got %v", err)
	}

	want := []struct {
		line, column int
		msg          string
	}{
		{8, 6, "Methods cannot be imported"},
		{11, 13, "Generic functions cannot be imported"},
		{14, 14, msgIllegalArgs},
		{17, 17, msgIllegalArgs},
		{20, 21, msgIllegalResult},
		{22, 17, msgAsync},
		{26, 16, msgAsync},
		{32, 6, `Duplicate import "dup"`},
		{34, 26, `Unsupported option "color"`},
		{37, 22, `Unsupported value for "name"`},
		{40, 22, `Invalid name "has space"`},
		{43, 1, "Only functions can be imported"},
		{46, 23, `Invalid scope "a b"`},
		{49, 23, `Reserved name "__tether"`},
	}
	if len(diags) != len(want) {
		t.Errorf("expected %d diagnostics, got %d:\n%v", len(want), len(diags), diags)
	}
	for _, w := range want {
		found := false
		for _, d := range diags {
			if d.Pos.Line == w.line && d.Pos.Column == w.column && strings.Contains(d.Msg, w.msg) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing diagnostic at %d:%d containing %q", w.line, w.column, w.msg)
		}
	}
	if !strings.Contains(err.Error(), "bad.go:8:6:") {
		t.Errorf("error should carry file positions:\n%v", err)
	}
}

func TestIntrospectPackage_IgnoresStaleOutput(t *testing.T) {
	model, err := IntrospectPackage("testdata/stale", ".")
	if err != nil {
		t.Fatalf("IntrospectPackage(stale): %v", err)
	}
	if len(model.Imports) != 1 || model.Imports[0].Func != "current" {
		t.Errorf("unexpected imports %+v", model.Imports)
	}
}

func TestIntrospectPackage_IgnoresStaleOutputUnderOtherName(t *testing.T) {
	model, err := IntrospectPackage("testdata/renamed", ".")
	if err != nil {
		t.Fatalf("IntrospectPackage(renamed): %v", err)
	}
	if len(model.Imports) != 1 || model.Imports[0].Func != "current" {
		t.Errorf("unexpected imports %+v", model.Imports)
	}
}

func TestIntrospectPackage_BadPath(t *testing.T) {
	_, err := IntrospectPackage(".", "nonexistent/package/path")
	if err == nil {
		t.Error("expected error for nonexistent package")
	}
}
