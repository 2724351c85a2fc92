// Package gojaengine implements engine.Engine on goja, with goja_nodejs
// providing the event loop, CommonJS module loading and console.
package gojaengine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"
	"github.com/tliron/commonlog"

	"github.com/chazu/tether/bridge"
	"github.com/chazu/tether/engine"
)

// primitiveName is the non-enumerable global holding the native-call
// primitive.
const primitiveName = bridge.NativeGlobal

var log = commonlog.GetLogger("tether.engine")

var errClosed = errors.New("engine is closed")

// Options configures a new Engine. The zero value is usable.
type Options struct {
	// Console enables the console global.
	Console bool
	// Stdout receives console.log/info output. Defaults to os.Stdout.
	Stdout io.Writer
	// Stderr receives console.warn/error output. Defaults to os.Stderr.
	Stderr io.Writer
	// SourceLoader overrides how module files are read, e.g. for tests.
	SourceLoader require.SourceLoader
}

// Engine is a goja runtime driven by a goja_nodejs event loop. All work
// runs on the calling goroutine inside EventLoop.Run.
type Engine struct {
	loop    *eventloop.EventLoop
	natives map[string]engine.NativeFunc
	closed  bool

	asyncErr error
	rejected []*goja.Promise
}

var _ engine.Engine = (*Engine)(nil)

// New creates an engine with the native-call primitive installed.
func New(opts Options) *Engine {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	var regOpts []require.Option
	if opts.SourceLoader != nil {
		regOpts = append(regOpts, require.WithLoader(opts.SourceLoader))
	}
	registry := require.NewRegistry(regOpts...)
	registry.RegisterNativeModule(console.ModuleName, console.RequireWithPrinter(&printer{
		stdout: opts.Stdout,
		stderr: opts.Stderr,
	}))

	e := &Engine{
		loop: eventloop.NewEventLoop(
			eventloop.WithRegistry(registry),
			eventloop.EnableConsole(opts.Console),
		),
		natives: make(map[string]engine.NativeFunc),
	}
	e.loop.Run(func(vm *goja.Runtime) {
		e.installPrimitive(vm)
		e.trackAsync(vm)
	})
	return e
}

func (e *Engine) installPrimitive(vm *goja.Runtime) {
	host := vm.NewObject()
	_ = host.Set("call", func(call goja.FunctionCall) goja.Value {
		return e.dispatch(vm, call)
	})
	_ = vm.GlobalObject().DefineDataProperty(primitiveName, host, goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE)
}

func (e *Engine) NativeCallExpr() string { return primitiveName + ".call" }

func (e *Engine) RegisterNative(name string, fn engine.NativeFunc) error {
	switch {
	case e.closed:
		return errClosed
	case name == "":
		return errors.New("native name is empty")
	case fn == nil:
		return fmt.Errorf("native %q has a nil function", name)
	}
	if _, dup := e.natives[name]; dup {
		return fmt.Errorf("native %q is already registered", name)
	}
	e.natives[name] = fn
	log.Debugf("registered native %s", name)
	return nil
}

func (e *Engine) Execute(ctx context.Context, filename, source string) error {
	if e.closed {
		return errClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	var runErr error
	e.loop.Run(func(vm *goja.Runtime) {
		_, runErr = vm.RunScript(filename, source)
	})
	return runErr
}

// LoadModule loads path as a CommonJS module through require(). Relative
// paths are resolved against the working directory. Once the loop has
// drained, the first exception thrown by a timer callback or left in an
// unhandled promise rejection fails the load. The context is only
// checked before evaluation starts; evaluation cannot be cancelled.
func (e *Engine) LoadModule(ctx context.Context, path string) error {
	if e.closed {
		return &bridge.Error{Kind: bridge.KindModule, Op: "load", Name: path, Err: errClosed}
	}
	if err := ctx.Err(); err != nil {
		return &bridge.Error{Kind: bridge.KindModule, Op: "load", Name: path, Err: err}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return &bridge.Error{Kind: bridge.KindModule, Op: "load", Name: path, Err: err}
	}

	e.takeAsync()
	var loadErr error
	e.loop.Run(func(vm *goja.Runtime) {
		req, ok := goja.AssertFunction(vm.Get("require"))
		if !ok {
			loadErr = errors.New("require() is not available")
			return
		}
		_, loadErr = req(goja.Undefined(), vm.ToValue(filepath.ToSlash(abs)))
	})
	if asyncErr := e.takeAsync(); loadErr == nil {
		loadErr = asyncErr
	}
	if loadErr != nil {
		return classify("load", path, loadErr)
	}
	return nil
}

func (e *Engine) Close() error {
	e.closed = true
	e.natives = nil
	return nil
}
