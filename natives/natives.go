// Package natives holds the host functions available to scripts started by
// `tether run`. The registration code in tether_imports.go is generated from
// the //tether:import directives below.
package natives

//go:generate go run github.com/chazu/tether/cmd/tether wrap .

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/chazu/tether/value"
)

// ErrExpectedName is returned by Stdin.read on an empty line.
var ErrExpectedName = errors.New("Expected name!")

var log = commonlog.GetLogger("tether.natives")

var (
	lock sync.Mutex
	in   = bufio.NewReader(os.Stdin)
	out  io.Writer = os.Stdout
	host []value.Value
)

// SetIO replaces the reader and writer used by Stdin and Stdout.
func SetIO(r io.Reader, w io.Writer) {
	lock.Lock()
	defer lock.Unlock()
	in = bufio.NewReader(r)
	out = w
}

// SetArgs sets the values returned by Host.args.
func SetArgs(args []value.Value) {
	lock.Lock()
	defer lock.Unlock()
	host = append([]value.Value(nil), args...)
}

//tether:import name="read" scope="Stdin"
func readLine() (value.Value, error) {
	lock.Lock()
	defer lock.Unlock()

	fmt.Fprintln(out, "Type your name: ")
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return value.Null(), err
	}
	line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
	if line == "" {
		return value.Null(), ErrExpectedName
	}
	log.Debugf("read %d bytes from stdin", len(line))
	return value.String(line), nil
}

//tether:import name="sayHello" scope="Stdout"
func sayHello(args []value.Value) {
	if len(args) == 0 {
		return
	}
	name, ok := args[0].AsString()
	if !ok {
		return
	}
	lock.Lock()
	defer lock.Unlock()
	fmt.Fprintf(out, "Hello, %s\n", name)
}

// printValues writes each argument as JSON, separated by spaces.
//
//tether:import name="print" scope="Stdout"
func printValues(args []value.Value) error {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.String()
	}
	lock.Lock()
	defer lock.Unlock()
	_, err := fmt.Fprintln(out, strings.Join(parts, " "))
	return err
}

//tether:import name="get" scope="Env"
func envGet(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Null(), errors.New("Env.get expects a key")
	}
	key, ok := args[0].AsString()
	if !ok {
		return value.Null(), fmt.Errorf("Env.get expects a string key, got %s", args[0].Kind())
	}
	v, ok := os.LookupEnv(key)
	if !ok {
		return value.Null(), nil
	}
	return value.String(v), nil
}

//tether:import name="args" scope="Host"
func hostArgs() value.Value {
	lock.Lock()
	defer lock.Unlock()
	return value.Array(host...)
}

// echo returns its first argument unchanged.
//
//tether:import
func echo(args []value.Value) value.Value {
	if len(args) == 0 {
		return value.Null()
	}
	return args[0]
}
