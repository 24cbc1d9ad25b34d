package solver

import (
	"fmt"

	"gofit/ports"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// QuasiNewton minimizes the sum of squares with gonum's BFGS method
type QuasiNewton struct {
	MaxIterations     int
	GradientThreshold float64
}

// Minimize implements ports.Solver
func (s *QuasiNewton) Minimize(residuals ports.ResidualFunc, m int, a0 []float64) (*ports.Solution, error) {
	if err := checkShape(m, a0); err != nil {
		return nil, err
	}
	n := len(a0)

	r := make([]float64, m)
	jac := mat.NewDense(m, n, nil)
	evaluations := 0

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			residuals(r, x)
			evaluations++
			return sumSquares(r)
		},
		Grad: func(grad, x []float64) {
			residuals(r, x)
			jacobian(jac, residuals, x)
			g := mat.NewVecDense(n, grad)
			g.MulVec(jac.T(), mat.NewVecDense(m, r))
			g.ScaleVec(2, g)
		},
	}
	settings := &optimize.Settings{
		MajorIterations:   s.MaxIterations,
		GradientThreshold: s.GradientThreshold,
	}

	result, err := optimize.Minimize(problem, append([]float64(nil), a0...), settings, &optimize.BFGS{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrNotConverged, err)
	}
	switch result.Status {
	case optimize.Failure, optimize.IterationLimit, optimize.RuntimeLimit,
		optimize.FunctionEvaluationLimit, optimize.GradientEvaluationLimit:
		return nil, fmt.Errorf("%w: optimizer stopped with status %v", ports.ErrNotConverged, result.Status)
	}
	if !isFinite(result.F) {
		return nil, fmt.Errorf("%w: objective is not finite at the solution", ports.ErrNotConverged)
	}
	return finish(residuals, m, result.X, result.F, result.MajorIterations, evaluations)
}
