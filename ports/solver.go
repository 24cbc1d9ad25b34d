package ports

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// ErrNotConverged is returned by solvers that stop before reaching a minimum
var ErrNotConverged = errors.New("solver did not converge")

// ResidualFunc fills dst with the residual vector at params
type ResidualFunc func(dst, params []float64)

// Solution is the outcome of a least-squares minimization
type Solution struct {
	Params []float64
	// Covariance is (JᵀJ)⁻¹ at Params, where J is the Jacobian of the residuals
	Covariance  *mat.SymDense
	Cost        float64
	Iterations  int
	Evaluations int
}

// Solver minimizes the sum of squared residuals.
// m is the length of the residual vector and a0 the initial guess.
type Solver interface {
	Minimize(residuals ResidualFunc, m int, a0 []float64) (*Solution, error)
}
