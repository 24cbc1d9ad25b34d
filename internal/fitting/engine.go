package fitting

import (
	"errors"
	"fmt"
	"log"
	"math"

	"gofit/domain/core"
	"gofit/domain/dataset"
	"gofit/domain/fitfunc"
	"gofit/ports"

	"gonum.org/v1/gonum/stat/distuv"
)

// Engine fits selected dataset records to a fit function
type Engine struct {
	solver ports.Solver
}

// NewEngine creates an engine that minimizes with solver
func NewEngine(solver ports.Solver) *Engine {
	return &Engine{solver: solver}
}

// fitInput holds the selected records that take part in a fit
type fitInput struct {
	indices  []int
	x        []float64
	y        []float64
	yerr     []float64
	weighted bool
}

// Fit runs a fit of fn over the selected records of ds.
// A nil a0 uses the function's default initial guess.
func (e *Engine) Fit(ds *dataset.Dataset, fn *fitfunc.FitFunction, a0 []float64) (*Result, error) {
	in, err := validate(ds, fn, a0)
	if err != nil {
		return nil, err
	}

	guess := initialGuess(fn, a0)
	log.Printf("[FittingEngine] fitting %s to %d records (a0=%v, weighted=%t)", fn.Name(), len(in.x), guess, in.weighted)

	sol, err := e.solve(in, fn, guess)
	if err != nil {
		log.Printf("[FittingEngine] %s did not converge: %v", fn.Name(), err)
		return nil, err
	}

	result, err := compute(ds, fn, in, guess, sol)
	if err != nil {
		return nil, err
	}
	log.Printf("[FittingEngine] %s converged after %d iterations: a=%v chi2_reduced=%.4g",
		fn.Name(), sol.Iterations, result.a, result.chiSquaredReduced)
	return result, nil
}

// validate checks roles, degrees of freedom and domain before any solver call
func validate(ds *dataset.Dataset, fn *fitfunc.FitFunction, a0 []float64) (*fitInput, error) {
	if ds == nil || fn == nil {
		return nil, core.NewFittingDataError("dataset and fit function are required")
	}

	n := fn.N()
	if a0 != nil && len(a0) != n {
		return nil, core.NewFittingDataError("initial guess has %d values, %s expects %d", len(a0), fn.Name(), n)
	}

	selected := ds.SelectedCount()
	if selected < n+1 {
		return nil, core.NewFittingDataError("%d records selected, %s needs at least %d (degrees of freedom %d)",
			selected, fn.Name(), n+1, selected-n)
	}

	in := &fitInput{}
	var err error
	if in.x, err = ds.X(); err != nil {
		return nil, core.NewFittingDataError("x column: %v", err)
	}
	if in.y, err = ds.Y(); err != nil {
		return nil, core.NewFittingDataError("y column: %v", err)
	}
	if ds.HasRole(dataset.RoleXErr) {
		if _, err := ds.XErr(); err != nil {
			return nil, core.NewFittingDataError("x error column: %v", err)
		}
	}
	if ds.HasRole(dataset.RoleYErr) {
		if in.yerr, err = ds.YErr(); err != nil {
			return nil, core.NewFittingDataError("y error column: %v", err)
		}
		in.weighted = true
	}

	for i, selectedRecord := range ds.Mask() {
		if selectedRecord {
			in.indices = append(in.indices, i)
		}
	}

	for i, x := range in.x {
		record := in.indices[i]
		if !isFinite(x) || !isFinite(in.y[i]) {
			return nil, core.NewFittingDataError("record %d has a non-finite value", record)
		}
		if !fn.InDomain(x) {
			return nil, core.NewFittingDataError("record %d: x=%g is outside the domain of %s", record, x, fn.Name())
		}
		if in.weighted && !(in.yerr[i] > 0 && isFinite(in.yerr[i])) {
			return nil, core.NewFittingDataError("record %d: y error %g must be positive", record, in.yerr[i])
		}
	}
	return in, nil
}

// initialGuess returns a copy of a0, or the function's deterministic default
func initialGuess(fn *fitfunc.FitFunction, a0 []float64) []float64 {
	if a0 != nil {
		return append([]float64(nil), a0...)
	}
	return fn.DefaultA0()
}

// weightedResiduals fills dst with (y - f(a, x)) / σ, or y - f(a, x) without y errors
func (in *fitInput) weightedResiduals(fn *fitfunc.FitFunction) ports.ResidualFunc {
	return func(dst, a []float64) {
		for i, x := range in.x {
			r := in.y[i] - fn.Eval(a, x)
			if in.weighted {
				r /= in.yerr[i]
			}
			dst[i] = r
		}
	}
}

func (e *Engine) solve(in *fitInput, fn *fitfunc.FitFunction, guess []float64) (*ports.Solution, error) {
	sol, err := e.solver.Minimize(in.weightedResiduals(fn), len(in.x), guess)
	if err != nil {
		return nil, core.NewConvergenceError(fn.Name(), err)
	}
	if len(sol.Params) != fn.N() {
		return nil, core.NewConvergenceError(fn.Name(),
			fmt.Errorf("solver returned %d parameters, expected %d", len(sol.Params), fn.N()))
	}
	for _, v := range sol.Params {
		if !isFinite(v) {
			return nil, core.NewConvergenceError(fn.Name(), errors.New("solver returned non-finite parameters"))
		}
	}
	if sol.Covariance == nil {
		return nil, core.NewConvergenceError(fn.Name(), errors.New("solver returned no covariance"))
	}
	return sol, nil
}

// compute derives residuals, chi-square statistics and parameter uncertainties
func compute(ds *dataset.Dataset, fn *fitfunc.FitFunction, in *fitInput, guess []float64, sol *ports.Solution) (*Result, error) {
	n := fn.N()
	dof := len(in.x) - n
	if dof <= 0 {
		return nil, core.NewFittingDataError("degrees of freedom must be positive, got %d", dof)
	}

	residuals := make([]float64, len(in.x))
	chi2 := 0.0
	for i, x := range in.x {
		residuals[i] = in.y[i] - fn.Eval(sol.Params, x)
		w := residuals[i]
		if in.weighted {
			w /= in.yerr[i]
		}
		chi2 += w * w
	}
	chi2Reduced := chi2 / float64(dof)
	pValue := distuv.ChiSquared{K: float64(dof)}.Survival(chi2)

	// without y errors the residual scale is estimated from the fit itself
	scale := 1.0
	if !in.weighted {
		scale = chi2Reduced
	}

	acov := make([][]float64, n)
	aerr := make([]float64, n)
	arerr := make([]float64, n)
	for i := 0; i < n; i++ {
		acov[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			acov[i][j] = sol.Covariance.At(i, j) * scale
		}
		aerr[i] = math.Sqrt(math.Max(acov[i][i], 0))
		if sol.Params[i] != 0 {
			arerr[i] = 100 * aerr[i] / math.Abs(sol.Params[i])
		}
	}

	return &Result{
		id:                core.NewResultID(),
		createdAt:         core.Now(),
		function:          fn,
		dataset:           ds,
		a0:                guess,
		a:                 cloneFloats(sol.Params),
		aerr:              aerr,
		arerr:             arerr,
		acov:              acov,
		degreesOfFreedom:  dof,
		chiSquared:        chi2,
		chiSquaredReduced: chi2Reduced,
		pValue:            pValue,
		residuals:         residuals,
		indices:           in.indices,
		weighted:          in.weighted,
		iterations:        sol.Iterations,
	}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
