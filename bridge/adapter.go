// Package bridge turns native Go functions into importable script callables
// and tracks where each one appears in the script namespace.
//
// Every imported function is normalized to a Callable. Two body shapes are
// supported, each with and without a trailing error result:
//
//	func() / func(args []value.Value)                                  unit
//	func() error / func(args []value.Value) error                      unit
//	func() value.Value / func(args []value.Value) value.Value          value
//	func() (value.Value, error) / func([]value.Value) (value.Value, error)  value
//
// Unit bodies always yield value.Null() when they succeed. Errors returned by
// a body are propagated unchanged.
package bridge

import (
	"fmt"

	"github.com/chazu/tether/value"
)

// Callable is the uniform shape every imported function is adapted to.
type Callable func(args []value.Value) (value.Value, error)

// Shape describes which body form an adapter was built from.
type Shape struct {
	TakesArgs  bool
	Returns    bool // body yields a value.Value
	ReturnsErr bool
}

func (s Shape) String() string {
	params := "()"
	if s.TakesArgs {
		params = "(args []value.Value)"
	}
	switch {
	case s.Returns && s.ReturnsErr:
		return "func" + params + " (value.Value, error)"
	case s.Returns:
		return "func" + params + " value.Value"
	case s.ReturnsErr:
		return "func" + params + " error"
	}
	return "func" + params
}

// Adapt wraps fn in a Callable. It reports the shape it recognized, or
// ErrUnsupportedShape.
func Adapt(fn any) (Callable, Shape, error) {
	switch f := fn.(type) {
	case nil:
		return nil, Shape{}, fmt.Errorf("%w: nil function", ErrUnsupportedShape)

	case Callable:
		if f == nil {
			return nil, Shape{}, fmt.Errorf("%w: nil function", ErrUnsupportedShape)
		}
		return f, Shape{TakesArgs: true, Returns: true, ReturnsErr: true}, nil
	case func([]value.Value) (value.Value, error):
		return checkNil(Callable(f), f == nil, Shape{TakesArgs: true, Returns: true, ReturnsErr: true})
	case func([]value.Value) value.Value:
		return checkNil(func(args []value.Value) (value.Value, error) {
			return f(args), nil
		}, f == nil, Shape{TakesArgs: true, Returns: true})
	case func([]value.Value) error:
		return checkNil(func(args []value.Value) (value.Value, error) {
			if err := f(args); err != nil {
				return value.Null(), err
			}
			return value.Null(), nil
		}, f == nil, Shape{TakesArgs: true, ReturnsErr: true})
	case func([]value.Value):
		return checkNil(func(args []value.Value) (value.Value, error) {
			f(args)
			return value.Null(), nil
		}, f == nil, Shape{TakesArgs: true})

	case func() (value.Value, error):
		return checkNil(func([]value.Value) (value.Value, error) {
			return f()
		}, f == nil, Shape{Returns: true, ReturnsErr: true})
	case func() value.Value:
		return checkNil(func([]value.Value) (value.Value, error) {
			return f(), nil
		}, f == nil, Shape{Returns: true})
	case func() error:
		return checkNil(func([]value.Value) (value.Value, error) {
			if err := f(); err != nil {
				return value.Null(), err
			}
			return value.Null(), nil
		}, f == nil, Shape{ReturnsErr: true})
	case func():
		return checkNil(func([]value.Value) (value.Value, error) {
			f()
			return value.Null(), nil
		}, f == nil, Shape{})
	}
	return nil, Shape{}, fmt.Errorf("%w: %T; want empty or (args []value.Value) parameters "+
		"and an empty, error, value.Value or (value.Value, error) result", ErrUnsupportedShape, fn)
}

func checkNil(c Callable, isNil bool, s Shape) (Callable, Shape, error) {
	if isNil {
		return nil, Shape{}, fmt.Errorf("%w: nil %s", ErrUnsupportedShape, s)
	}
	return c, s, nil
}
