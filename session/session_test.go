package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/tether/bridge"
	"github.com/chazu/tether/engine"
	"github.com/chazu/tether/engine/gojaengine"
	"github.com/chazu/tether/value"
)

var errExpectedName = errors.New("Expected name!")

// harness is a builder over a real goja engine with a capture import.
type harness struct {
	b        *Builder
	captured [][]value.Value
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{b: NewBuilder(gojaengine.New(gojaengine.Options{}), WithID("test"))}
	if err := h.b.Import(bridge.Config{Name: "capture", Scope: "Test"}, func(args []value.Value) {
		h.captured = append(h.captured, args)
	}); err != nil {
		t.Fatalf("Import capture: %v", err)
	}
	return h
}

func (h *harness) finish(t *testing.T) *Session {
	t.Helper()
	s, err := h.b.Finish(context.Background())
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func module(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "module.js")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readAda() value.Value { return value.String("Ada") }

func echo(args []value.Value) value.Value {
	if len(args) == 0 {
		return value.Null()
	}
	return args[0]
}

func TestStdinReadAndEchoScenario(t *testing.T) {
	h := newHarness(t)
	if err := h.b.Register(func() bridge.ImportedFunction {
		return bridge.MustNew(bridge.Config{Name: "read", Scope: "Stdin"}, readAda)
	}); err != nil {
		t.Fatal(err)
	}
	if err := h.b.Import(bridge.Config{Name: "echo"}, echo); err != nil {
		t.Fatal(err)
	}
	s := h.finish(t)

	src := `
Test.capture(globalThis.Stdin.read());
Test.capture(globalThis.echo({name: "Ada", tags: ["x", 1, null], ok: true}));
Test.capture(echo());
`
	if err := s.LoadModule(context.Background(), module(t, src)); err != nil {
		t.Fatalf("LoadModule: %v", err)
	}
	if len(h.captured) != 3 {
		t.Fatalf("captured %d calls, want 3", len(h.captured))
	}
	if !value.Equal(h.captured[0][0], value.String("Ada")) {
		t.Errorf("Stdin.read() = %v, want \"Ada\"", h.captured[0][0])
	}
	want := value.ObjectOf(
		value.Member{Key: "name", Value: value.String("Ada")},
		value.Member{Key: "tags", Value: value.Array(value.String("x"), value.Number(1), value.Null())},
		value.Member{Key: "ok", Value: value.Bool(true)},
	)
	if !value.Equal(h.captured[1][0], want) {
		t.Errorf("echo(x) = %v, want %v", h.captured[1][0], want)
	}
	if !h.captured[2][0].IsNull() {
		t.Errorf("echo() = %v, want null", h.captured[2][0])
	}
}

func TestBusinessErrorReachesScript(t *testing.T) {
	h := newHarness(t)
	if err := h.b.Import(bridge.Config{Name: "read", Scope: "Stdin"}, func() (value.Value, error) {
		return value.Null(), errExpectedName
	}); err != nil {
		t.Fatal(err)
	}
	s := h.finish(t)

	src := `
let result = "not thrown";
try {
    result = Stdin.read();
} catch (e) {
    Test.capture(e.message);
}
Test.capture(result);
`
	if err := s.LoadModule(context.Background(), module(t, src)); err != nil {
		t.Fatalf("LoadModule: %v", err)
	}
	if len(h.captured) != 2 {
		t.Fatalf("captured %d calls, want 2", len(h.captured))
	}
	if msg, _ := h.captured[0][0].AsString(); msg != "Expected name!" {
		t.Errorf("message = %q, want %q", msg, "Expected name!")
	}
	if got, _ := h.captured[1][0].AsString(); got != "not thrown" {
		t.Errorf("result = %v; a failed call must not produce a value", h.captured[1][0])
	}
}

func TestUncaughtBusinessErrorIsCallKind(t *testing.T) {
	h := newHarness(t)
	if err := h.b.Import(bridge.Config{Name: "read", Scope: "Stdin"}, func() error {
		return errExpectedName
	}); err != nil {
		t.Fatal(err)
	}
	s := h.finish(t)

	err := s.LoadModule(context.Background(), module(t, `Stdin.read();`))
	if !bridge.IsKind(err, bridge.KindCall) {
		t.Fatalf("err = %v, want call kind", err)
	}
	if !errors.Is(err, errExpectedName) {
		t.Errorf("err should wrap the native error: %v", err)
	}
}

func TestUnregisteredFunctionIsModuleError(t *testing.T) {
	h := newHarness(t)
	if err := h.b.Import(bridge.Config{Name: "read", Scope: "Stdin"}, readAda); err != nil {
		t.Fatal(err)
	}
	s := h.finish(t)

	for _, src := range []string{`Stdout.sayHello("Ada");`, `Stdin.write("x");`, `missing();`} {
		err := s.LoadModule(context.Background(), module(t, src))
		if !bridge.IsKind(err, bridge.KindModule) {
			t.Errorf("%s: err = %v, want module kind", src, err)
		}
		if bridge.IsKind(err, bridge.KindCall) {
			t.Errorf("%s: must not look like a business error", src)
		}
	}
}

func TestMalformedPayloadIsProtocolError(t *testing.T) {
	h := newHarness(t)
	if err := h.b.Import(bridge.Config{Name: "echo"}, echo); err != nil {
		t.Fatal(err)
	}
	s := h.finish(t)

	err := s.LoadModule(context.Background(), module(t, `__tether.call("echo", {argv: [1]});`))
	if !bridge.IsKind(err, bridge.KindProtocol) {
		t.Fatalf("err = %v, want protocol kind", err)
	}
	if !errors.Is(err, value.ErrMalformedPayload) {
		t.Errorf("err should wrap ErrMalformedPayload: %v", err)
	}
}

func TestBuilderIsConsumedByFinish(t *testing.T) {
	h := newHarness(t)
	s := h.finish(t)

	if err := h.b.Import(bridge.Config{Name: "late"}, func() {}); !errors.Is(err, bridge.ErrFinished) {
		t.Errorf("Import after Finish = %v, want ErrFinished", err)
	}
	if err := h.b.Register(nil); !errors.Is(err, bridge.ErrFinished) {
		t.Errorf("Register after Finish = %v, want ErrFinished", err)
	}
	if _, err := h.b.Finish(context.Background()); !errors.Is(err, bridge.ErrFinished) {
		t.Errorf("second Finish = %v, want ErrFinished", err)
	}
	if len(s.Functions()) != 1 || s.Functions()[0].QualifiedName() != "Test.capture" {
		t.Errorf("session functions = %v", s.Functions())
	}
}

func TestGlueMatchesRegistrations(t *testing.T) {
	h := newHarness(t)
	if err := h.b.Import(bridge.Config{Name: "echo"}, echo); err != nil {
		t.Fatal(err)
	}
	s := h.finish(t)
	want := `"use strict";
((global) => {
    global["Test"] = {};
    global["Test"]["capture"] = (...args) => __tether.call("Test.capture", {args});
    global["echo"] = (...args) => __tether.call("echo", {args});
})(globalThis);
`
	if s.Glue() != want {
		t.Errorf("Glue =\n%s\nwant\n%s", s.Glue(), want)
	}
	if s.ID() != "test" {
		t.Errorf("ID = %q", s.ID())
	}
}

func TestDuplicateImportRejected(t *testing.T) {
	h := newHarness(t)
	err := h.b.Import(bridge.Config{Name: "capture", Scope: "Test"}, func() {})
	if !errors.Is(err, bridge.ErrDuplicateImport) {
		t.Fatalf("err = %v, want ErrDuplicateImport", err)
	}
	// The builder is still usable after a rejected declaration.
	if err := h.b.Import(bridge.Config{Name: "other", Scope: "Test"}, func() {}); err != nil {
		t.Errorf("Import after rejection: %v", err)
	}
}

func TestClosedSession(t *testing.T) {
	h := newHarness(t)
	s := h.finish(t)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := s.LoadModule(context.Background(), "x.js"); !bridge.IsKind(err, bridge.KindProtocol) {
		t.Errorf("LoadModule after Close = %v, want protocol kind", err)
	}
}

// fakeEngine fails on demand to exercise setup errors.
type fakeEngine struct {
	registerErr error
	executeErr  error
	executed    []string
	closed      bool
}

func (f *fakeEngine) RegisterNative(string, engine.NativeFunc) error { return f.registerErr }

func (f *fakeEngine) NativeCallExpr() string { return "native" }

func (f *fakeEngine) Execute(_ context.Context, _ string, source string) error {
	f.executed = append(f.executed, source)
	return f.executeErr
}

func (f *fakeEngine) LoadModule(context.Context, string) error { return errors.New("no modules") }

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

func TestEngineRegistrationFailureIsFatal(t *testing.T) {
	eng := &fakeEngine{registerErr: errors.New("op table full")}
	b := NewBuilder(eng)
	err := b.Import(bridge.Config{Name: "echo"}, echo)
	if !bridge.IsKind(err, bridge.KindSetup) {
		t.Fatalf("err = %v, want setup kind", err)
	}
	if err2 := b.Import(bridge.Config{Name: "other"}, echo); !bridge.IsKind(err2, bridge.KindSetup) {
		t.Errorf("builder should stay poisoned, got %v", err2)
	}
	if _, err := b.Finish(context.Background()); !bridge.IsKind(err, bridge.KindSetup) {
		t.Errorf("Finish = %v, want setup kind", err)
	}
	if !eng.closed {
		t.Error("engine should be closed after a fatal setup error")
	}
	if len(eng.executed) != 0 {
		t.Error("glue must not run after a fatal setup error")
	}
}

func TestGlueFailureAbortsSession(t *testing.T) {
	eng := &fakeEngine{executeErr: errors.New("SyntaxError")}
	b := NewBuilder(eng, WithID("abc"))
	if err := b.Import(bridge.Config{Name: "echo"}, echo); err != nil {
		t.Fatal(err)
	}
	s, err := b.Finish(context.Background())
	if s != nil || !bridge.IsKind(err, bridge.KindSetup) {
		t.Fatalf("Finish = %v, %v; want nil, setup error", s, err)
	}
	if !strings.Contains(err.Error(), "tether:glue/abc.js") {
		t.Errorf("error should name the glue file: %v", err)
	}
	if len(eng.executed) != 1 {
		t.Errorf("glue executed %d times, want 1", len(eng.executed))
	}
}

func TestReservedGlobalRejectedAtImport(t *testing.T) {
	eng := &fakeEngine{}
	b := NewBuilder(eng)
	err := b.Import(bridge.Config{Name: "call", Scope: bridge.NativeGlobal}, echo)
	if !bridge.IsKind(err, bridge.KindConfig) || !errors.Is(err, bridge.ErrReservedName) {
		t.Fatalf("Import = %v, want reserved-name config error", err)
	}
	if _, err := b.Finish(context.Background()); err != nil {
		t.Errorf("Finish after rejected import: %v", err)
	}
}

func TestLoadModuleWrapsPlainEngineErrors(t *testing.T) {
	b := NewBuilder(&fakeEngine{})
	s, err := b.Finish(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.LoadModule(context.Background(), "x.js"); !bridge.IsKind(err, bridge.KindModule) {
		t.Errorf("err = %v, want module kind", err)
	}
}

func TestRun(t *testing.T) {
	var got []string
	capture := func() bridge.ImportedFunction {
		return bridge.MustNew(bridge.Config{Name: "say"}, func(args []value.Value) {
			s, _ := args[0].AsString()
			got = append(got, s)
		})
	}
	err := Run(context.Background(), gojaengine.New(gojaengine.Options{}), module(t, `say("hi");`), capture)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 || got[0] != "hi" {
		t.Errorf("got %v", got)
	}
}
