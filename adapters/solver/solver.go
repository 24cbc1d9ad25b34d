// Package solver provides least-squares minimizers backed by gonum.
package solver

import (
	"fmt"
	"math"

	"gofit/ports"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// Method names accepted by New
const (
	MethodLevenbergMarquardt = "lm"
	MethodBFGS               = "bfgs"
)

const (
	defaultMaxIterations     = 200
	defaultGradientThreshold = 1e-10
)

// New returns the solver registered under method
func New(method string, maxIterations int, gradientThreshold float64) (ports.Solver, error) {
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}
	if gradientThreshold <= 0 {
		gradientThreshold = defaultGradientThreshold
	}
	switch method {
	case "", MethodLevenbergMarquardt:
		s := NewLevenbergMarquardt()
		s.MaxIterations = maxIterations
		s.GradientThreshold = gradientThreshold
		return s, nil
	case MethodBFGS:
		return &QuasiNewton{MaxIterations: maxIterations, GradientThreshold: gradientThreshold}, nil
	}
	return nil, fmt.Errorf("unknown solver method %q (use %s or %s)", method, MethodLevenbergMarquardt, MethodBFGS)
}

// jacobian fills dst (m×n) with central finite differences of the residuals at x
func jacobian(dst *mat.Dense, residuals ports.ResidualFunc, x []float64) {
	fd.Jacobian(dst, residuals, x, &fd.JacobianSettings{Formula: fd.Central})
}

// covariance returns (JᵀJ)⁻¹
func covariance(jac *mat.Dense) (*mat.SymDense, error) {
	_, n := jac.Dims()
	jtj := mat.NewSymDense(n, nil)
	jtj.SymOuterK(1, jac.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(jtj); !ok {
		return nil, fmt.Errorf("%w: normal matrix is singular, parameters are not identifiable", ports.ErrNotConverged)
	}
	cov := mat.NewSymDense(n, nil)
	if err := chol.InverseTo(cov); err != nil {
		return nil, fmt.Errorf("%w: invert normal matrix: %v", ports.ErrNotConverged, err)
	}
	return cov, nil
}

// finish evaluates the covariance at x and assembles the solution
func finish(residuals ports.ResidualFunc, m int, x []float64, cost float64, iterations, evaluations int) (*ports.Solution, error) {
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: parameter %d is not finite", ports.ErrNotConverged, i)
		}
	}
	jac := mat.NewDense(m, len(x), nil)
	jacobian(jac, residuals, x)
	cov, err := covariance(jac)
	if err != nil {
		return nil, err
	}
	return &ports.Solution{
		Params:      append([]float64(nil), x...),
		Covariance:  cov,
		Cost:        cost,
		Iterations:  iterations,
		Evaluations: evaluations,
	}, nil
}

func sumSquares(r []float64) float64 {
	s := 0.0
	for _, v := range r {
		s += v * v
	}
	return s
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func checkShape(m int, a0 []float64) error {
	if len(a0) == 0 {
		return fmt.Errorf("initial guess is empty")
	}
	if m < len(a0) {
		return fmt.Errorf("%d residuals cannot determine %d parameters", m, len(a0))
	}
	return nil
}
