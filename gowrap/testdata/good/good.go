package good

import (
	"errors"

	"github.com/chazu/tether/value"
)

//tether:import name="read" scope="Stdin"
func readFromStdin() (value.Value, error) {
	return value.Null(), errors.New("Expected name!")
}

//tether:import name="sayHello", scope="Stdout"
func sayHello(args []value.Value) error {
	return nil
}

// echo returns its first argument.
//
//tether:import
func echo(args []value.Value) value.Value {
	if len(args) == 0 {
		return value.Null()
	}
	return args[0]
}

//tether:import scope="Env"
func ping() {}

// notImported has no directive.
func notImported() value.Value { return value.Null() }
