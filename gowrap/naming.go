package gowrap

// DefaultFileName is the generated file written into each wrapped package.
const DefaultFileName = "tether_imports.go"

// FactoryName is the name of the generated factory for a Go function.
// e.g., "readFromStdin" → "readFromStdinImport", "Echo" → "EchoImport"
func FactoryName(funcName string) string {
	return funcName + "Import"
}
