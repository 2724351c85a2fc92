// Package glue generates the JavaScript that exposes registered native
// functions to script code.
//
// For every declared scope the glue creates an empty namespace object on
// the global object; for every import it installs a stub that forwards its
// arguments, as {args}, to the engine's native-call primitive:
//
//	global["Stdin"] = {};
//	global["Stdin"]["read"] = (...args) => __tether.call("Stdin.read", {args});
//
// The output depends only on the input, so identical registration
// sequences produce byte-identical glue.
package glue

import (
	"encoding/json"
	"strings"
	"text/template"

	"github.com/chazu/tether/bridge"
)

// Stub is one script-visible function.
type Stub struct {
	Name       string
	Scope      string // "" for top level
	Registered string // name passed to the native-call primitive
}

// Input is everything the generator needs.
type Input struct {
	Scopes    []string
	Functions []Stub
	// NativeCall is the JS expression of the synchronous native-call
	// primitive, e.g. "__tether.call".
	NativeCall string
}

var glueTemplate = template.Must(template.New("glue").Funcs(template.FuncMap{
	"lit": jsString,
}).Parse(`"use strict";
((global) => {
{{- range .Scopes}}
    global[{{lit .}}] = {};
{{- end}}
{{- range .Functions}}
    {{if .Scope}}global[{{lit .Scope}}][{{lit .Name}}]{{else}}global[{{lit .Name}}]{{end}} = (...args) => {{$.NativeCall}}({{lit .Registered}}, {args});
{{- end}}
})(globalThis);
`))

// Generate renders the glue source.
func Generate(in Input) string {
	var sb strings.Builder
	// The template only ranges over slices of strings and structs of
	// strings, so execution cannot fail for a well-formed Input.
	if err := glueTemplate.Execute(&sb, in); err != nil {
		panic("glue: " + err.Error())
	}
	return sb.String()
}

// FromRegistry builds the generator input from a registry, preserving its
// scope and registration order.
func FromRegistry(reg *bridge.Registry, nativeCall string) Input {
	in := Input{
		Scopes:     reg.Scopes(),
		NativeCall: nativeCall,
	}
	for _, f := range reg.Functions() {
		in.Functions = append(in.Functions, Stub{
			Name:       f.Name(),
			Scope:      f.Scope(),
			Registered: f.QualifiedName(),
		})
	}
	return in
}

// jsString quotes s as a JavaScript string literal. JSON string syntax is a
// subset of JS string syntax, including U+2028 and U+2029 since ES2019.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		panic("glue: " + err.Error())
	}
	return string(b)
}
