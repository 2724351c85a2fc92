package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/tether/bridge"
	"github.com/chazu/tether/engine/gojaengine"
	"github.com/chazu/tether/manifest"
	"github.com/chazu/tether/natives"
	"github.com/chazu/tether/session"
	"github.com/chazu/tether/value"
)

// argList collects repeated --arg flags, each holding one JSON value.
type argList []value.Value

func (a *argList) String() string {
	parts := make([]string, len(*a))
	for i, v := range *a {
		parts[i] = v.String()
	}
	return strings.Join(parts, " ")
}

func (a *argList) Set(s string) error {
	v, err := value.ParseJSON(s)
	if err != nil {
		return fmt.Errorf("--arg must be JSON: %w", err)
	}
	*a = append(*a, v)
	return nil
}

// handleRunCommand processes the `tether run` subcommand.
// Usage:
//
//	tether run                    # entry from tether.toml, or main.js
//	tether run js/module.js       # explicit entry
//	tether run --arg 42 m.js      # Host.args() returns [42]
func handleRunCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "Debug logging")
	configDir := fs.String("config", ".", "Directory to search for tether.toml")
	var hostArgs argList
	fs.Var(&hostArgs, "arg", "JSON value appended to Host.args() (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	m, err := manifest.FindAndLoad(*configDir)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading manifest: %v\n", err)
		return 1
	}
	if m == nil {
		if m, err = manifest.Default(*configDir); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	verbosity := m.Verbosity()
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, m.LogPath())

	entry := m.EntryPath()
	if fs.NArg() > 0 {
		entry = fs.Arg(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	natives.SetArgs(hostArgs)
	eng := gojaengine.New(gojaengine.Options{
		Console: m.ConsoleEnabled(),
		Stdout:  stdout,
		Stderr:  stderr,
	})
	if err := session.Run(ctx, eng, entry, natives.Imports()...); err != nil {
		fmt.Fprintln(stderr, describe(err))
		return 1
	}
	return 0
}

// describe separates errors thrown by host functions from failures of the
// module itself.
func describe(err error) string {
	switch bridge.KindOf(err) {
	case bridge.KindCall:
		return fmt.Sprintf("Uncaught error from host function: %v", err)
	case bridge.KindModule:
		return fmt.Sprintf("Error evaluating module: %v", err)
	case bridge.KindSetup, bridge.KindConfig:
		return fmt.Sprintf("Error starting session: %v", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
