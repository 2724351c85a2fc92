package bad

import "github.com/chazu/tether/value"

type T struct{}

//tether:import
func (T) method() {}

//tether:import
func generic[V any](v V) {}

//tether:import
func variadic(args ...value.Value) {}

//tether:import
func wrongParams(s string) {}

//tether:import
func wrongResults() (string, error) { return "", nil }

//tether:import async
func asyncOption() {}

//tether:import
func streams() chan value.Value { return nil }

//tether:import name="dup"
func first() {}

//tether:import name="dup"
func second() {}

//tether:import name="x" color="red"
func badOption() {}

//tether:import name=read
func unquoted() {}

//tether:import name="has space"
func badName() {}

//tether:import
var notAFunc = 1

//tether:import scope="a b"
func badScope() {}

//tether:import scope="__tether"
func reservedScope() {}
