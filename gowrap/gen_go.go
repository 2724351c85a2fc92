package gowrap

import (
	"bytes"
	"fmt"

	"github.com/dave/jennifer/jen"
)

const bridgePkg = "github.com/chazu/tether/bridge"

// HeaderComment is the first line of every generated file.
const HeaderComment = "Code generated by tether wrap. DO NOT EDIT."

// GenerateGoGlue renders the registration file for model: one factory per
// import plus an Imports function listing them in declaration order.
func GenerateGoGlue(model *PackageModel) (string, error) {
	f := jen.NewFile(model.Name)
	f.HeaderComment(HeaderComment)
	f.ImportName(bridgePkg, "bridge")

	for _, imp := range model.Imports {
		cfg := jen.Dict{jen.Id("Name"): jen.Lit(imp.Name)}
		if imp.Scope != "" {
			cfg[jen.Id("Scope")] = jen.Lit(imp.Scope)
		}
		f.Commentf("%s imports %s as %q.", FactoryName(imp.Func), imp.Func, imp.QualifiedName())
		f.Func().Id(FactoryName(imp.Func)).Params().Qual(bridgePkg, "ImportedFunction").Block(
			jen.Return(jen.Qual(bridgePkg, "MustNew").Call(
				jen.Qual(bridgePkg, "Config").Values(cfg),
				jen.Id(imp.Func),
			)),
		)
		f.Line()
	}

	f.Comment("Imports returns a factory for every imported function in this package.")
	f.Func().Id("Imports").Params().Index().Qual(bridgePkg, "Factory").Block(
		jen.Return(jen.Index().Qual(bridgePkg, "Factory").ValuesFunc(func(g *jen.Group) {
			for _, imp := range model.Imports {
				g.Id(FactoryName(imp.Func))
			}
		})),
	)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return "", fmt.Errorf("rendering glue for %s: %w", model.ImportPath, err)
	}
	return buf.String(), nil
}
