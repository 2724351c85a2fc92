package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/tliron/commonlog"

	"github.com/chazu/tether/server"
)

// handleLspCommand serves the language server on stdio. Logs must not go to
// stdout, which carries the protocol.
func handleLspCommand(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("lsp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "Debug logging")
	logFile := fs.String("log", "", "Log file (default stderr)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	var path *string
	if *logFile != "" {
		path = logFile
	}
	commonlog.Configure(verbosity, path)

	if err := server.NewLSP().Run(); err != nil {
		fmt.Fprintf(stderr, "Language server error: %v\n", err)
		return 1
	}
	return 0
}
