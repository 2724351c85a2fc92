package gojaengine

import (
	"errors"
	"fmt"
	"io"

	"github.com/dop251/goja"

	"github.com/chazu/tether/bridge"
	"github.com/chazu/tether/engine"
	"github.com/chazu/tether/value"
)

// nativeError marks an error raised by the native-call primitive so it can
// be told apart from other Go errors thrown into the script (require
// failures, for instance). Its message is exactly the wrapped error's.
type nativeError struct {
	name string
	err  error
}

func (e *nativeError) Error() string { return e.err.Error() }
func (e *nativeError) Unwrap() error { return e.err }

// dispatch is the body of __tether.call(name, payload). Errors are thrown
// as GoError objects whose message is the native message.
func (e *Engine) dispatch(vm *goja.Runtime, call goja.FunctionCall) goja.Value {
	name := call.Argument(0).String()
	fn, ok := e.natives[name]
	if !ok {
		panic(vm.NewGoError(&nativeError{name: name, err: &bridge.Error{
			Kind: bridge.KindProtocol, Op: "call", Name: name, Err: bridge.ErrUnknownFunction,
		}}))
	}

	payload, err := fromJS(call.Argument(1))
	if err != nil {
		panic(vm.NewGoError(&nativeError{name: name, err: &bridge.Error{
			Kind: bridge.KindProtocol, Op: "call", Name: name, Err: err,
		}}))
	}

	result, err := invoke(name, fn, payload)
	if err != nil {
		panic(vm.NewGoError(&nativeError{name: name, err: err}))
	}
	return toJS(vm, result)
}

// invoke runs fn, turning a panic in native code into an internal error.
func invoke(name string, fn engine.NativeFunc, payload value.Value) (result value.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("native %s panicked: %v", name, r)
			result = value.Null()
			err = &bridge.Error{Kind: bridge.KindInternal, Op: "call", Name: name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return fn(payload)
}

// classify maps a script failure to the bridge error taxonomy. An uncaught
// exception raised by a native function keeps that function's error kind
// (KindCall for business errors); everything else is KindModule.
func classify(op, name string, err error) error {
	ne, _ := err.(*nativeError)
	var exc *goja.Exception
	if ne == nil && errors.As(err, &exc) {
		ne = nativeCause(exc)
	}
	if ne != nil {
		kind := bridge.KindOf(ne.err)
		switch kind {
		case bridge.KindProtocol, bridge.KindInternal:
		default:
			kind = bridge.KindCall
		}
		return &bridge.Error{Kind: kind, Op: op, Name: name, Err: ne}
	}
	return &bridge.Error{Kind: bridge.KindModule, Op: op, Name: name, Err: err}
}

func nativeCause(exc *goja.Exception) *nativeError {
	obj, ok := exc.Value().(*goja.Object)
	if !ok {
		return nil
	}
	v := obj.Get("value")
	if v == nil {
		return nil
	}
	ne, _ := v.Export().(*nativeError)
	return ne
}

// printer routes console output to the configured writers.
type printer struct {
	stdout io.Writer
	stderr io.Writer
}

func (p *printer) Log(s string)   { fmt.Fprintln(p.stdout, s) }
func (p *printer) Info(s string)  { fmt.Fprintln(p.stdout, s) }
func (p *printer) Debug(s string) { fmt.Fprintln(p.stdout, s) }
func (p *printer) Warn(s string)  { fmt.Fprintln(p.stderr, s) }
func (p *printer) Error(s string) { fmt.Fprintln(p.stderr, s) }
