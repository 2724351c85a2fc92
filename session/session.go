// Package session drives one embedded engine through the import lifecycle:
// register native functions on a Builder, Finish it to install the glue,
// then load modules on the resulting Session.
//
//	b := session.NewBuilder(gojaengine.New(gojaengine.Options{Console: true}))
//	if err := b.RegisterAll(natives.Imports()...); err != nil { ... }
//	s, err := b.Finish(ctx)
//	if err != nil { ... }
//	defer s.Close()
//	err = s.LoadModule(ctx, "./module.js")
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/tether/bridge"
	"github.com/chazu/tether/engine"
	"github.com/chazu/tether/glue"
	"github.com/chazu/tether/value"
)

// Option configures a Builder.
type Option func(*Builder)

// WithLogger replaces the default "tether.session" logger.
func WithLogger(l commonlog.Logger) Option {
	return func(b *Builder) { b.log = l }
}

// WithID sets the session ID used in logs and the glue filename.
func WithID(id string) Option {
	return func(b *Builder) { b.id = id }
}

// Builder accepts registrations. It is consumed by Finish; every method
// returns ErrFinished afterwards.
type Builder struct {
	id       string
	eng      engine.Engine
	registry *bridge.Registry
	log      commonlog.Logger

	// fatal poisons the builder after an engine registration failure.
	fatal error
	done  bool
}

// NewBuilder takes ownership of eng.
func NewBuilder(eng engine.Engine, opts ...Option) *Builder {
	b := &Builder{
		id:       uuid.NewString(),
		eng:      eng,
		registry: bridge.NewRegistry(),
		log:      commonlog.GetLogger("tether.session"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) ID() string { return b.id }

// Register invokes f and registers the ImportedFunction it returns.
func (b *Builder) Register(f bridge.Factory) error {
	if err := b.usable("register"); err != nil {
		return err
	}
	if f == nil {
		return &bridge.Error{Kind: bridge.KindConfig, Op: "register", Err: errors.New("nil factory")}
	}
	return b.add(f())
}

// RegisterAll registers factories in order, stopping at the first error.
func (b *Builder) RegisterAll(fs ...bridge.Factory) error {
	for _, f := range fs {
		if err := b.Register(f); err != nil {
			return err
		}
	}
	return nil
}

// Import builds an ImportedFunction from cfg and fn and registers it.
func (b *Builder) Import(cfg bridge.Config, fn any) error {
	if err := b.usable("register"); err != nil {
		return err
	}
	imported, err := bridge.New(cfg, fn)
	if err != nil {
		return err
	}
	return b.add(imported)
}

func (b *Builder) add(f bridge.ImportedFunction) error {
	if err := b.registry.Register(f); err != nil {
		return err
	}
	qualified := f.QualifiedName()
	if err := b.eng.RegisterNative(qualified, nativeFunc(f)); err != nil {
		b.fatal = &bridge.Error{Kind: bridge.KindSetup, Op: "register", Name: qualified, Err: err}
		b.log.Errorf("session %s: %v", b.id, b.fatal)
		return b.fatal
	}
	b.log.Debugf("session %s: imported %s (%s)", b.id, qualified, f.Shape())
	return nil
}

func (b *Builder) usable(op string) error {
	if b.done {
		return &bridge.Error{Kind: bridge.KindProtocol, Op: op, Err: bridge.ErrFinished}
	}
	return b.fatal
}

// Finish freezes the registry, generates the glue and executes it once.
// Any failure is fatal for the session and the engine is closed.
func (b *Builder) Finish(ctx context.Context) (*Session, error) {
	if b.done {
		return nil, &bridge.Error{Kind: bridge.KindProtocol, Op: "finish", Err: bridge.ErrFinished}
	}
	b.done = true

	if b.fatal != nil {
		b.eng.Close()
		return nil, b.fatal
	}
	if err := b.registry.Freeze(); err != nil {
		b.eng.Close()
		return nil, err
	}

	source := glue.Generate(glue.FromRegistry(b.registry, b.eng.NativeCallExpr()))
	filename := fmt.Sprintf("tether:glue/%s.js", b.id)
	if err := b.eng.Execute(ctx, filename, source); err != nil {
		b.eng.Close()
		return nil, &bridge.Error{Kind: bridge.KindSetup, Op: "finish", Name: filename, Err: err}
	}
	b.log.Infof("session %s: installed glue for %d imports in %d scopes",
		b.id, b.registry.Len(), len(b.registry.Scopes()))

	s := &Session{
		id:       b.id,
		eng:      b.eng,
		registry: b.registry,
		glue:     source,
		log:      b.log,
	}
	b.eng = nil
	b.registry = nil
	return s, nil
}

// Session is a ready engine with its glue installed. It has no way to
// register further imports.
type Session struct {
	id       string
	eng      engine.Engine
	registry *bridge.Registry
	glue     string
	log      commonlog.Logger
	closed   bool
}

func (s *Session) ID() string { return s.id }

// Glue returns the installed glue source.
func (s *Session) Glue() string { return s.glue }

// Functions lists the imports in registration order.
func (s *Session) Functions() []bridge.ImportedFunction { return s.registry.Functions() }

// Scopes lists declared scopes in first-declared order.
func (s *Session) Scopes() []string { return s.registry.Scopes() }

// LoadModule loads and evaluates the module at path and waits for the
// engine's pending work to drain. Failures are *bridge.Error values of kind
// KindModule, or KindCall when a native function's error went uncaught.
func (s *Session) LoadModule(ctx context.Context, path string) error {
	if s.closed {
		return &bridge.Error{Kind: bridge.KindProtocol, Op: "load", Name: path, Err: errors.New("session is closed")}
	}
	s.log.Infof("session %s: loading %s", s.id, path)
	if err := s.eng.LoadModule(ctx, path); err != nil {
		s.log.Warningf("session %s: %v", s.id, err)
		if bridge.KindOf(err) == 0 {
			err = &bridge.Error{Kind: bridge.KindModule, Op: "load", Name: path, Err: err}
		}
		return err
	}
	return nil
}

// Close releases the engine.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.eng.Close()
}

// Run builds a session from factories, loads path and closes the session.
func Run(ctx context.Context, eng engine.Engine, path string, factories ...bridge.Factory) error {
	b := NewBuilder(eng)
	if err := b.RegisterAll(factories...); err != nil {
		eng.Close()
		return err
	}
	s, err := b.Finish(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.LoadModule(ctx, path)
}

// nativeFunc adapts an import to the engine's payload convention.
func nativeFunc(f bridge.ImportedFunction) engine.NativeFunc {
	qualified := f.QualifiedName()
	return func(payload value.Value) (value.Value, error) {
		args, err := value.Args(payload)
		if err != nil {
			return value.Null(), &bridge.Error{Kind: bridge.KindProtocol, Op: "call", Name: qualified, Err: err}
		}
		return f.Invoke(args)
	}
}
