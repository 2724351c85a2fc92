// Tether CLI - runs JavaScript modules against Go host functions and
// generates the registration code for them.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	flag.Usage = func() {
		usage(os.Stderr)
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	args := flag.Args()[1:]
	switch flag.Arg(0) {
	case "run":
		os.Exit(handleRunCommand(args, os.Stdout, os.Stderr))
	case "wrap":
		os.Exit(handleWrapCommand(args, os.Stdout, os.Stderr))
	case "glue":
		os.Exit(handleGlueCommand(args, os.Stdout, os.Stderr))
	case "lsp":
		os.Exit(handleLspCommand(args, os.Stderr))
	case "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", flag.Arg(0))
		flag.Usage()
		os.Exit(2)
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: tether <command> [options] [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  run   Load a JavaScript module with the host functions installed\n")
	fmt.Fprintf(w, "  wrap  Generate registration code for //tether:import functions\n")
	fmt.Fprintf(w, "  glue  Print the JavaScript glue a session installs\n")
	fmt.Fprintf(w, "  lsp   Serve //tether:import diagnostics to editors over stdio\n")
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  tether run                         # run the entry from tether.toml\n")
	fmt.Fprintf(w, "  tether run -v js/module.js         # run a module with debug logging\n")
	fmt.Fprintf(w, "  tether run --arg '{\"n\": 1}' m.js   # pass values to Host.args()\n")
	fmt.Fprintf(w, "  tether wrap ./natives              # regenerate tether_imports.go\n")
	fmt.Fprintf(w, "  tether glue                        # show the glue for the built-in natives\n")
}
