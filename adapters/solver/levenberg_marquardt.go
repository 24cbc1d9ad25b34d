package solver

import (
	"fmt"
	"math"

	"gofit/ports"

	"gonum.org/v1/gonum/mat"
)

// LevenbergMarquardt is a damped Gauss-Newton least-squares solver
type LevenbergMarquardt struct {
	MaxIterations     int
	GradientThreshold float64
	// FunctionTolerance stops when an accepted step improves the cost by less than this fraction
	FunctionTolerance float64
	// StepTolerance stops when an accepted step is shorter than this fraction of |x|
	StepTolerance float64
}

// NewLevenbergMarquardt returns a solver with default tolerances
func NewLevenbergMarquardt() *LevenbergMarquardt {
	return &LevenbergMarquardt{
		MaxIterations:     defaultMaxIterations,
		GradientThreshold: defaultGradientThreshold,
		FunctionTolerance: 1e-14,
		StepTolerance:     1e-12,
	}
}

const (
	initialDamping = 1e-3
	maxDamping     = 1e16
)

// Minimize implements ports.Solver
func (s *LevenbergMarquardt) Minimize(residuals ports.ResidualFunc, m int, a0 []float64) (*ports.Solution, error) {
	if err := checkShape(m, a0); err != nil {
		return nil, err
	}
	n := len(a0)

	x := append([]float64(nil), a0...)
	r := make([]float64, m)
	residuals(r, x)
	evaluations := 1
	cost := sumSquares(r)
	if !isFinite(cost) {
		return nil, fmt.Errorf("%w: residuals are not finite at the initial guess", ports.ErrNotConverged)
	}

	jac := mat.NewDense(m, n, nil)
	jtj := mat.NewSymDense(n, nil)
	damped := mat.NewSymDense(n, nil)
	g := mat.NewVecDense(n, nil)
	step := mat.NewVecDense(n, nil)
	trial := make([]float64, n)
	rTrial := make([]float64, m)
	lambda := initialDamping

	for iter := 1; iter <= s.MaxIterations; iter++ {
		jacobian(jac, residuals, x)
		jtj.SymOuterK(1, jac.T())
		g.MulVec(jac.T(), mat.NewVecDense(m, r))
		if gradientConverged(jac, g, cost, s.GradientThreshold) {
			return finish(residuals, m, x, cost, iter, evaluations)
		}

		for {
			damped.CopySym(jtj)
			for i := 0; i < n; i++ {
				d := math.Max(jtj.At(i, i), 1e-12)
				damped.SetSym(i, i, jtj.At(i, i)+lambda*d)
			}

			var chol mat.Cholesky
			if chol.Factorize(damped) && chol.SolveVecTo(step, g) == nil {
				for i := range trial {
					trial[i] = x[i] - step.AtVec(i)
				}
				residuals(rTrial, trial)
				evaluations++
				trialCost := sumSquares(rTrial)

				if isFinite(trialCost) && trialCost < cost {
					improvement := cost - trialCost
					copy(x, trial)
					copy(r, rTrial)
					cost = trialCost
					lambda = math.Max(lambda/10, 1e-12)

					if improvement <= s.FunctionTolerance*cost ||
						mat.Norm(step, 2) <= s.StepTolerance*(norm2(x)+s.StepTolerance) {
						return finish(residuals, m, x, cost, iter, evaluations)
					}
					break
				}
			}

			lambda *= 10
			if lambda > maxDamping {
				// no downhill step exists at working precision
				return finish(residuals, m, x, cost, iter, evaluations)
			}
		}
	}
	return nil, fmt.Errorf("%w: no minimum after %d iterations", ports.ErrNotConverged, s.MaxIterations)
}

// gradientConverged reports whether every column of J is orthogonal to r
// within threshold, |Jᵀr|ᵢ <= threshold·‖Jᵢ‖·‖r‖, which does not depend on
// the units of the data.
func gradientConverged(jac *mat.Dense, g *mat.VecDense, cost, threshold float64) bool {
	if cost == 0 {
		return true
	}
	rNorm := math.Sqrt(cost)
	_, n := jac.Dims()
	for i := 0; i < n; i++ {
		colNorm := mat.Norm(jac.ColView(i), 2)
		if colNorm == 0 {
			continue
		}
		if math.Abs(g.AtVec(i)) > threshold*colNorm*rNorm {
			return false
		}
	}
	return true
}

func norm2(x []float64) float64 {
	return math.Sqrt(sumSquares(x))
}
