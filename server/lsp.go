// Package server implements a language server that reports //tether:import
// problems in Go files while they are edited, and offers hover and
// completion for the directive.
package server

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/tether/bridge"
	"github.com/chazu/tether/gowrap"
)

const lspName = "tether-lsp"

// LspServer runs the build-time checks of `tether wrap` on open documents.
type LspServer struct {
	mu     sync.Mutex
	docs   map[string]string               // URI → full document content
	models map[string]*gowrap.PackageModel // package dir → last analysis

	log     commonlog.Logger
	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server.
func NewLSP() *LspServer {
	s := &LspServer{
		docs:    make(map[string]string),
		models:  make(map[string]*gowrap.PackageModel),
		log:     commonlog.GetLogger("tether.lsp"),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.log.Info("Tether LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{":", " "},
	}

	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			text := whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	s.mu.Lock()
	text, ok := s.docs[string(params.TextDocument.URI)]
	s.mu.Unlock()

	if !ok {
		return nil, nil
	}

	return complete(text, params.Position), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	uri := params.TextDocument.URI

	s.mu.Lock()
	text, ok := s.docs[string(uri)]
	s.mu.Unlock()

	if !ok {
		return nil, nil
	}

	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}

	path, ok := uriToPath(uri)
	if !ok {
		return nil, nil
	}
	return s.hover(filepath.Dir(path), word), nil
}

// analyze runs the directive checks for the package holding uri, with text
// standing in for the file on disk.
func (s *LspServer) analyze(uri protocol.DocumentUri, text string) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}

	path, ok := uriToPath(uri)
	if !ok || !strings.HasSuffix(path, ".go") {
		return diagnostics
	}
	dir := filepath.Dir(path)

	model, err := gowrap.IntrospectOverlay(dir, ".", map[string][]byte{path: []byte(text)})
	var diags gowrap.Diagnostics
	if err != nil && !errors.As(err, &diags) {
		// Type errors are the Go toolchain's to report.
		s.log.Debugf("analyzing %s: %v", dir, err)
		return diagnostics
	}

	s.mu.Lock()
	s.models[dir] = model
	s.mu.Unlock()

	severity := protocol.DiagnosticSeverityError
	source := lspName
	for _, d := range diags {
		if d.Pos.Filename != path {
			continue
		}
		start := protocol.Position{Line: uint32(d.Pos.Line - 1), Character: uint32(d.Pos.Column - 1)}
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    protocol.Range{Start: start, End: start},
			Severity: &severity,
			Source:   &source,
			Message:  d.Msg,
		})
	}
	s.log.Debugf("%s: %d diagnostics", path, len(diagnostics))
	return diagnostics
}

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diagnostics := s.analyze(uri, text)

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// hover describes an imported function, looked up by its Go name or its
// script-visible name in the last analysis of dir.
func (s *LspServer) hover(dir, word string) *protocol.Hover {
	s.mu.Lock()
	model := s.models[dir]
	s.mu.Unlock()

	if model == nil {
		return nil
	}

	for _, imp := range model.Imports {
		if imp.Func != word && imp.Name != word {
			continue
		}
		shape := bridge.Shape{TakesArgs: imp.TakesArgs, Returns: imp.Returns, ReturnsErr: imp.ReturnsErr}

		var b strings.Builder
		fmt.Fprintf(&b, "**%s**\n\n", imp.QualifiedName())
		fmt.Fprintf(&b, "Imported from `%s`\n\n", imp.Func)
		fmt.Fprintf(&b, "```go\n%s\n```", shape)
		return &protocol.Hover{
			Contents: protocol.MarkupContent{
				Kind:  protocol.MarkupKindMarkdown,
				Value: b.String(),
			},
		}
	}
	return nil
}

// complete offers the directive itself and the options it accepts.
func complete(text string, pos protocol.Position) []protocol.CompletionItem {
	var items []protocol.CompletionItem

	line := currentLine(text, pos)
	if rest, ok := strings.CutPrefix(strings.TrimSpace(line), gowrap.Directive); ok {
		kind := protocol.CompletionItemKindProperty
		for _, option := range []string{"name", "scope"} {
			if strings.Contains(rest, option+"=") {
				continue
			}
			detail := "tether:import option"
			insert := option + `=""`
			items = append(items, protocol.CompletionItem{
				Label:      option,
				Kind:       &kind,
				Detail:     &detail,
				InsertText: &insert,
			})
		}
		if !slices.Contains(strings.Fields(strings.ReplaceAll(rest, ",", " ")), "async") {
			detail := "tether:import option, reported as unsupported"
			insert := "async"
			items = append(items, protocol.CompletionItem{
				Label:      "async",
				Kind:       &kind,
				Detail:     &detail,
				InsertText: &insert,
			})
		}
		return items
	}

	prefix := extractPrefix(text, pos)
	if strings.HasPrefix(prefix, "//") && strings.HasPrefix(gowrap.Directive, prefix) {
		kind := protocol.CompletionItemKindKeyword
		detail := "import this function into scripts"
		insert := gowrap.Directive
		items = append(items, protocol.CompletionItem{
			Label:      gowrap.Directive,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &insert,
		})
	}
	return items
}

// --- Text extraction helpers ---

func currentLine(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	return lines[pos.Line]
}

// extractPrefix returns the word fragment before the cursor for completion.
// Slashes and colons count as word characters so that a partially typed
// directive is one fragment.
func extractPrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Walk backwards from cursor to find the start of the fragment
	start := col
	for start > 0 {
		ch := rune(line[start-1])
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' || ch == ':' || ch == '/' {
			start--
		} else {
			break
		}
	}

	if start == col {
		return ""
	}

	return line[start:col]
}

// extractWord returns the full identifier under the cursor.
func extractWord(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Find start
	start := col
	for start > 0 {
		ch := rune(line[start-1])
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' {
			start--
		} else {
			break
		}
	}

	// Find end
	end := col
	for end < len(line) {
		ch := rune(line[end])
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' {
			end++
		} else {
			break
		}
	}

	if start == end {
		return ""
	}

	return line[start:end]
}

func uriToPath(uri protocol.DocumentUri) (string, bool) {
	u, err := url.Parse(string(uri))
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	return filepath.FromSlash(u.Path), true
}

func boolPtr(b bool) *bool {
	return &b
}
