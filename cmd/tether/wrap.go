package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chazu/tether/gowrap"
	"github.com/chazu/tether/manifest"
)

// handleWrapCommand processes the `tether wrap` subcommand.
// Usage:
//
//	tether wrap                   # all packages from tether.toml
//	tether wrap ./natives         # single package, ad-hoc
//	tether wrap -o gen.go ./pkg   # custom output filename
func handleWrapCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("wrap", flag.ContinueOnError)
	fs.SetOutput(stderr)
	output := fs.String("o", "", "Generated filename within each package directory")
	verbose := fs.Bool("v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	dir := "."
	targets := fs.Args()
	if len(targets) == 0 {
		// Load from tether.toml
		m, err := manifest.FindAndLoad(".")
		if err != nil {
			fmt.Fprintf(stderr, "Error loading manifest: %v\n", err)
			return 1
		}
		if m == nil {
			fmt.Fprintln(stderr, "Error: no tether.toml found and no packages specified")
			fmt.Fprintln(stderr, "Usage: tether wrap [packages...] or configure [wrap] in tether.toml")
			return 1
		}
		if len(m.Wrap.Packages) == 0 {
			fmt.Fprintln(stderr, "No [wrap] packages configured in tether.toml")
			return 1
		}
		if *output == "" {
			*output = m.Wrap.Output
		}
		dir = m.Dir
		targets = m.Wrap.Packages
	}

	// Default output filename
	if *output == "" {
		*output = gowrap.DefaultFileName
	}

	for _, target := range targets {
		path, n, err := wrapPackage(dir, target, *output)
		if err != nil {
			var diags gowrap.Diagnostics
			if errors.As(err, &diags) {
				fmt.Fprintf(stderr, "%v\n", diags)
			} else {
				fmt.Fprintf(stderr, "Error wrapping %s: %v\n", target, err)
			}
			return 1
		}
		if *verbose {
			fmt.Fprintf(stdout, "Wrote %s (%d imports)\n", path, n)
		}
	}

	if *verbose {
		fmt.Fprintf(stdout, "Wrapped %d package(s)\n", len(targets))
	}
	return 0
}

// wrapPackage writes the generated registration file into the package's own
// directory and returns its path and the number of imports.
func wrapPackage(dir, pattern, output string) (string, int, error) {
	model, err := gowrap.IntrospectPackage(dir, pattern)
	if err != nil {
		return "", 0, err
	}
	if model.Dir == "" {
		return "", 0, fmt.Errorf("package %s has no Go files", model.ImportPath)
	}

	code, err := gowrap.GenerateGoGlue(model)
	if err != nil {
		return "", 0, fmt.Errorf("generating Go glue: %w", err)
	}

	path := filepath.Join(model.Dir, output)
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		return "", 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return path, len(model.Imports), nil
}
