package fitfunc

import (
	"fmt"
	"math"
	"strings"

	"gofit/domain/core"
)

// builtinFunctions lists the built-in fit functions in registration order
var builtinFunctions = []FunctionSpec{
	{
		Name:   "constant",
		N:      1,
		Syntax: "a[0]",
		Eval:   func(a []float64, x float64) float64 { return a[0] },
	},
	{
		Name:   "linear",
		N:      2,
		Syntax: "a[0] + a[1] * x",
		Eval:   func(a []float64, x float64) float64 { return a[0] + a[1]*x },
	},
	{
		Name:   "parabolic",
		N:      3,
		Syntax: "a[0] + a[1] * x + a[2] * x ^ 2",
		Eval:   func(a []float64, x float64) float64 { return a[0] + a[1]*x + a[2]*x*x },
	},
	{
		Name:   "hyperbolic",
		N:      3,
		Syntax: "a[0] / (x + a[1]) + a[2]",
		Eval:   func(a []float64, x float64) float64 { return a[0]/(x+a[1]) + a[2] },
	},
	{
		Name:   "exponential",
		N:      3,
		Syntax: "a[0] * exp(a[1] * x) + a[2]",
		Eval:   func(a []float64, x float64) float64 { return a[0]*math.Exp(a[1]*x) + a[2] },
		A0:     []float64{1, 0.1, 0},
	},
	{
		Name:   "cos",
		N:      4,
		Syntax: "a[0] * cos(a[1] * x + a[2]) + a[3]",
		Eval:   func(a []float64, x float64) float64 { return a[0]*math.Cos(a[1]*x+a[2]) + a[3] },
		A0:     []float64{1, 1, 0, 0},
	},
	{
		Name:   "sin",
		N:      4,
		Syntax: "a[0] * sin(a[1] * x + a[2]) + a[3]",
		Eval:   func(a []float64, x float64) float64 { return a[0]*math.Sin(a[1]*x+a[2]) + a[3] },
		A0:     []float64{1, 1, 0, 0},
	},
	{
		Name:   "straight_power",
		N:      4,
		Syntax: "a[0] * (x + a[1]) ^ a[2] + a[3]",
		Eval:   func(a []float64, x float64) float64 { return a[0]*math.Pow(x+a[1], a[2]) + a[3] },
	},
	{
		Name:   "inverse_power",
		N:      4,
		Syntax: "a[0] / (x + a[1]) ^ a[2] + a[3]",
		Eval:   func(a []float64, x float64) float64 { return a[0]/math.Pow(x+a[1], a[2]) + a[3] },
	},
	{
		Name:   "logarithmic",
		N:      2,
		Syntax: "a[0] * ln(x) + a[1]",
		Eval:   func(a []float64, x float64) float64 { return a[0]*math.Log(x) + a[1] },
		Domain: func(x float64) bool { return x > 0 },
	},
	{
		Name:   "normal",
		N:      4,
		Syntax: "a[0] * exp( - ((x - a[1]) / a[2]) ^ 2 / 2) + a[3]",
		Eval: func(a []float64, x float64) float64 {
			z := (x - a[1]) / a[2]
			return a[0]*math.Exp(-z*z/2) + a[3]
		},
		A0: []float64{1, 0, 1, 0},
	},
	{
		Name:   "poisson",
		N:      2,
		Syntax: "a[0] * (a[1] ^ x) * exp(-a[1]) / gamma(x + 1)",
		Eval: func(a []float64, x float64) float64 {
			lg, _ := math.Lgamma(x + 1)
			return a[0] * math.Exp(x*math.Log(a[1])-a[1]-lg)
		},
		Domain: func(x float64) bool { return x >= 0 },
	},
}

var polynomialGenerator = GeneratorSpec{
	Name:       "polynomial",
	Parameters: "n",
	Syntax:     "a[0] + a[1] * x + ... + a[n] * x ^ n",
	Build:      buildPolynomial,
}

func buildPolynomial(args ...int) (*FitFunction, error) {
	degree := args[0]
	if degree < 1 {
		return nil, &core.FitFunctionLoadError{Message: fmt.Sprintf("polynomial degree must be at least 1, got %d", degree)}
	}
	return NewFunction(FunctionSpec{
		Name:   fmt.Sprintf("polynomial_%d", degree),
		N:      degree + 1,
		Syntax: polynomialSyntax(degree),
		Eval: func(a []float64, x float64) float64 {
			// Horner's scheme
			y := a[degree]
			for i := degree - 1; i >= 0; i-- {
				y = y*x + a[i]
			}
			return y
		},
	})
}

func polynomialSyntax(degree int) string {
	terms := []string{"a[0]", "a[1] * x"}
	for i := 2; i <= degree; i++ {
		terms = append(terms, fmt.Sprintf("a[%d] * x ^ %d", i, i))
	}
	return strings.Join(terms, " + ")
}

// RegisterBuiltins adds the built-in fit functions and generators to r
func RegisterBuiltins(r *Registry) error {
	for _, spec := range builtinFunctions {
		if _, err := r.AddFunction(spec); err != nil {
			return fmt.Errorf("register %s: %w", spec.Name, err)
		}
	}
	if _, err := r.AddGenerator(polynomialGenerator); err != nil {
		return fmt.Errorf("register %s: %w", polynomialGenerator.Name, err)
	}
	return nil
}
