package gojaengine

import (
	"fmt"

	"github.com/dop251/goja"
)

// timerFuncs are the event loop globals whose callbacks run after the
// module body has returned.
var timerFuncs = []string{"setTimeout", "setInterval", "setImmediate"}

// trackAsync routes exceptions that would otherwise be lost to the engine:
// those thrown by timer callbacks, which the event loop discards, and
// promise rejections that never get a handler.
func (e *Engine) trackAsync(vm *goja.Runtime) {
	for _, name := range timerFuncs {
		schedule, ok := goja.AssertFunction(vm.Get(name))
		if !ok {
			continue
		}
		_ = vm.Set(name, func(call goja.FunctionCall) goja.Value {
			args := append([]goja.Value(nil), call.Arguments...)
			if len(args) > 0 {
				if fn, ok := goja.AssertFunction(args[0]); ok {
					args[0] = vm.ToValue(func(inner goja.FunctionCall) goja.Value {
						if _, err := fn(inner.This, inner.Arguments...); err != nil {
							e.recordAsync(err)
						}
						return goja.Undefined()
					})
				}
			}
			v, err := schedule(call.This, args...)
			if err != nil {
				panic(err)
			}
			return v
		})
	}

	vm.SetPromiseRejectionTracker(func(p *goja.Promise, op goja.PromiseRejectionOperation) {
		switch op {
		case goja.PromiseRejectionReject:
			e.rejected = append(e.rejected, p)
		case goja.PromiseRejectionHandle:
			for i, r := range e.rejected {
				if r == p {
					e.rejected = append(e.rejected[:i], e.rejected[i+1:]...)
					break
				}
			}
		}
	})
}

// recordAsync keeps the first asynchronous failure.
func (e *Engine) recordAsync(err error) {
	if e.asyncErr == nil {
		e.asyncErr = err
	}
}

// takeAsync returns the first failure since the last call, counting
// rejections still unhandled once the loop has drained.
func (e *Engine) takeAsync() error {
	for _, p := range e.rejected {
		e.recordAsync(rejectionError(p.Result()))
	}
	err := e.asyncErr
	e.asyncErr = nil
	e.rejected = nil
	return err
}

func rejectionError(reason goja.Value) error {
	if obj, ok := reason.(*goja.Object); ok {
		if v := obj.Get("value"); v != nil {
			if ne, ok := v.Export().(*nativeError); ok {
				return ne
			}
		}
	}
	return fmt.Errorf("unhandled promise rejection: %s", reason)
}
