package fitfunc

import (
	"fmt"
	"strings"

	"gofit/domain/core"
)

// Evaluator computes y = f(a, x). Callers pass exactly N parameters.
type Evaluator func(a []float64, x float64) float64

// DomainPredicate reports whether x is a valid input
type DomainPredicate func(x float64) bool

// FunctionSpec describes a fit function to construct
type FunctionSpec struct {
	Name   string
	N      int
	Syntax string
	Eval   Evaluator
	Domain DomainPredicate
	// A0 is the initial guess used when the caller supplies none. Empty means all ones.
	A0 []float64
}

// FitFunction is an immutable named model with a fixed number of parameters
type FitFunction struct {
	name   string
	n      int
	syntax string
	eval   Evaluator
	domain DomainPredicate
	a0     []float64
}

// NewFunction validates spec and builds an unregistered fit function
func NewFunction(spec FunctionSpec) (*FitFunction, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return nil, fmt.Errorf("fit function name cannot be empty")
	}
	if spec.N < 1 {
		return nil, fmt.Errorf("fit function %s must take at least one parameter, got %d", spec.Name, spec.N)
	}
	if spec.Eval == nil {
		return nil, fmt.Errorf("fit function %s has no evaluator", spec.Name)
	}
	if len(spec.A0) != 0 && len(spec.A0) != spec.N {
		return nil, core.NewParameterCountError(spec.Name+" default a0", spec.N, len(spec.A0))
	}

	var a0 []float64
	if len(spec.A0) > 0 {
		a0 = append([]float64(nil), spec.A0...)
	}
	return &FitFunction{
		name:   spec.Name,
		n:      spec.N,
		syntax: spec.Syntax,
		eval:   spec.Eval,
		domain: spec.Domain,
		a0:     a0,
	}, nil
}

func (f *FitFunction) Name() string        { return f.name }
func (f *FitFunction) DisplayName() string { return f.name }
func (f *FitFunction) Syntax() string      { return f.syntax }
func (f *FitFunction) entry()              {}

// N returns the number of fit parameters
func (f *FitFunction) N() int { return f.n }

// HasDomain reports whether the function restricts its inputs
func (f *FitFunction) HasDomain() bool { return f.domain != nil }

// InDomain reports whether x is a valid input. Functions without a predicate accept everything.
func (f *FitFunction) InDomain(x float64) bool {
	return f.domain == nil || f.domain(x)
}

// DefaultA0 returns the initial guess used when none is supplied
func (f *FitFunction) DefaultA0() []float64 {
	a0 := make([]float64, f.n)
	if f.a0 != nil {
		copy(a0, f.a0)
		return a0
	}
	for i := range a0 {
		a0[i] = 1
	}
	return a0
}

// Eval computes f(a, x) without checking the parameter count
func (f *FitFunction) Eval(a []float64, x float64) float64 {
	return f.eval(a, x)
}

// Evaluate computes f(a, x) for each x after checking the parameter count
func (f *FitFunction) Evaluate(a []float64, xs ...float64) ([]float64, error) {
	if len(a) != f.n {
		return nil, core.NewParameterCountError(f.name, f.n, len(a))
	}
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = f.eval(a, x)
	}
	return out, nil
}
