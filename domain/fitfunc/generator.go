package fitfunc

import (
	"fmt"
	"strings"

	"gofit/domain/core"
)

// Builder produces a fit function from generator arguments
type Builder func(args ...int) (*FitFunction, error)

// GeneratorSpec describes a family of fit functions
type GeneratorSpec struct {
	Name string
	// Parameters is the comma separated argument signature, e.g. "p" or "p, q"
	Parameters string
	Syntax     string
	Build      Builder
}

// Generator builds fit functions parametrized by integer arguments
type Generator struct {
	name       string
	parameters string
	arity      int
	syntax     string
	build      Builder
}

// NewGenerator validates spec and builds an unregistered generator
func NewGenerator(spec GeneratorSpec) (*Generator, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return nil, fmt.Errorf("generator name cannot be empty")
	}
	if spec.Build == nil {
		return nil, fmt.Errorf("generator %s has no builder", spec.Name)
	}
	arity := 0
	for _, p := range strings.Split(spec.Parameters, ",") {
		if strings.TrimSpace(p) != "" {
			arity++
		}
	}
	return &Generator{
		name:       spec.Name,
		parameters: spec.Parameters,
		arity:      arity,
		syntax:     spec.Syntax,
		build:      spec.Build,
	}, nil
}

func (g *Generator) Name() string       { return g.name }
func (g *Generator) Syntax() string     { return g.syntax }
func (g *Generator) Parameters() string { return g.parameters }
func (g *Generator) entry()             {}

// Arity returns the number of generator arguments
func (g *Generator) Arity() int { return g.arity }

// DisplayName renders the generator with its signature, e.g. polynomial(p)
func (g *Generator) DisplayName() string {
	return fmt.Sprintf("%s(%s)", g.name, g.parameters)
}

// Generate builds a fit function after checking the argument count
func (g *Generator) Generate(args ...int) (*FitFunction, error) {
	if len(args) != g.arity {
		return nil, core.NewGeneratorArgsLoadError(g.name, g.arity, len(args))
	}
	return g.build(args...)
}
