package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/chazu/tether/bridge"
	"github.com/chazu/tether/engine/gojaengine"
	"github.com/chazu/tether/glue"
	"github.com/chazu/tether/gowrap"
	"github.com/chazu/tether/natives"
	"github.com/chazu/tether/session"
)

// handleGlueCommand processes the `tether glue` subcommand. Without
// arguments it prints the glue installed for the built-in natives; with
// package patterns it prints the glue their directives would produce.
func handleGlueCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("glue", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var source string
	var err error
	if fs.NArg() == 0 {
		source, err = nativesGlue()
	} else {
		source, err = packagesGlue(fs.Args())
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprint(stdout, source)
	return 0
}

func nativesGlue() (string, error) {
	b := session.NewBuilder(gojaengine.New(gojaengine.Options{}))
	if err := b.RegisterAll(natives.Imports()...); err != nil {
		return "", err
	}
	s, err := b.Finish(context.Background())
	if err != nil {
		return "", err
	}
	defer s.Close()
	return s.Glue(), nil
}

// packagesGlue registers placeholders for every directive so that the
// registry applies the same collision rules as a real session.
func packagesGlue(patterns []string) (string, error) {
	reg := bridge.NewRegistry()
	for _, pattern := range patterns {
		model, err := gowrap.IntrospectPackage(".", pattern)
		if err != nil {
			return "", err
		}
		for _, imp := range model.Imports {
			f, err := bridge.New(bridge.Config{Name: imp.Name, Scope: imp.Scope}, func() {})
			if err != nil {
				return "", err
			}
			if err := reg.Register(f); err != nil {
				return "", err
			}
		}
	}
	if err := reg.Freeze(); err != nil {
		return "", err
	}

	eng := gojaengine.New(gojaengine.Options{})
	defer eng.Close()
	return glue.Generate(glue.FromRegistry(reg, eng.NativeCallExpr())), nil
}
