package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/tether/bridge"
	"github.com/chazu/tether/natives"
)

func project(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var nativeOut, stdout, stderr bytes.Buffer
	natives.SetIO(strings.NewReader(stdin), &nativeOut)
	t.Cleanup(func() { natives.SetIO(os.Stdin, os.Stdout) })
	code := handleRunCommand(args, &stdout, &stderr)
	return code, nativeOut.String() + stdout.String(), stderr.String()
}

func TestRunManifestEntry(t *testing.T) {
	dir := project(t, map[string]string{
		"tether.toml": "[project]\nentry = \"js/module.js\"\n[runtime]\nlog-level = \"error\"\n",
		"js/module.js": `
const user = Stdin.read();
Stdout.sayHello(user);
console.log("args", JSON.stringify(Host.args()));
`,
	})
	code, out, errOut := runCLI(t, "Ada\n", "-config", dir, "--arg", `{"n": 1}`, "--arg", `"x"`)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	for _, want := range []string{"Hello, Ada", `args [{"n":1},"x"]`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunExplicitEntryWithoutManifest(t *testing.T) {
	dir := project(t, map[string]string{"m.js": `Stdout.print(echo([1, "two"]));`})
	code, out, errOut := runCLI(t, "", "-config", dir, filepath.Join(dir, "m.js"))
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if out != "[1,\"two\"]\n" {
		t.Errorf("output = %q", out)
	}
}

func TestRunReportsErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		stdin  string
		source string
		prefix string
	}{
		{"business", "\n", `Stdin.read();`, "Uncaught error from host function:"},
		{"module", "", `Stdout.missing();`, "Error evaluating module:"},
		{"syntax", "", `let = ;`, "Error evaluating module:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := project(t, map[string]string{"main.js": tt.source})
			code, _, errOut := runCLI(t, tt.stdin, "-config", dir)
			if code != 1 {
				t.Errorf("exit %d, want 1", code)
			}
			if !strings.HasPrefix(errOut, tt.prefix) {
				t.Errorf("stderr = %q, want prefix %q", errOut, tt.prefix)
			}
		})
	}
}

func TestRunRejectsBadArg(t *testing.T) {
	code, _, errOut := runCLI(t, "", "--arg", "{nope")
	if code != 2 {
		t.Errorf("exit %d, want 2", code)
	}
	if !strings.Contains(errOut, "--arg must be JSON") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestDescribe(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		err    error
		prefix string
	}{
		{&bridge.Error{Kind: bridge.KindCall, Op: "call", Err: cause}, "Uncaught error from host function"},
		{&bridge.Error{Kind: bridge.KindModule, Op: "load", Err: cause}, "Error evaluating module"},
		{&bridge.Error{Kind: bridge.KindSetup, Op: "finish", Err: cause}, "Error starting session"},
		{cause, "Error: boom"},
	}
	for _, tt := range tests {
		if got := describe(tt.err); !strings.HasPrefix(got, tt.prefix) {
			t.Errorf("describe(%v) = %q, want prefix %q", tt.err, got, tt.prefix)
		}
	}
}

func TestGlueCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := handleGlueCommand(nil, &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	for _, want := range []string{
		`global["Stdin"] = {};`,
		`global["Stdin"]["read"] = (...args) => __tether.call("Stdin.read", {args});`,
		`global["echo"] = (...args) => __tether.call("echo", {args});`,
	} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("glue missing %q:\n%s", want, stdout.String())
		}
	}
}

func TestGlueCommandForPackage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := handleGlueCommand([]string{"../../gowrap/testdata/good"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), `global["Env"]["ping"] = (...args) => __tether.call("Env.ping", {args});`) {
		t.Errorf("unexpected glue:\n%s", stdout.String())
	}
}

func TestWrapCommand(t *testing.T) {
	const output = "zz_wrap_test_imports.go"
	path := filepath.Join("..", "..", "gowrap", "testdata", "good", output)
	t.Cleanup(func() { os.Remove(path) })

	var stdout, stderr bytes.Buffer
	code := handleWrapCommand([]string{"-v", "-o", output, "../../gowrap/testdata/good"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("generated file: %v", err)
	}
	if !strings.Contains(string(data), "func Imports() []bridge.Factory") {
		t.Errorf("unexpected output:\n%s", data)
	}
	if !strings.Contains(stdout.String(), "(4 imports)") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestWrapCommandDiagnostics(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := handleWrapCommand([]string{"../../gowrap/testdata/bad"}, &stdout, &stderr)
	if code != 1 {
		t.Errorf("exit %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "Methods cannot be imported") {
		t.Errorf("stderr = %q", stderr.String())
	}
}
