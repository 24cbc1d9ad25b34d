package fitting

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"gofit/adapters/solver"
	"gofit/domain/core"
	"gofit/domain/dataset"
	"gofit/domain/fitfunc"
	"gofit/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// recordingSolver returns a canned solution and remembers its inputs
type recordingSolver struct {
	calls  int
	a0     [][]float64
	params []float64
	err    error
}

func (s *recordingSolver) Minimize(residuals ports.ResidualFunc, m int, a0 []float64) (*ports.Solution, error) {
	s.calls++
	s.a0 = append(s.a0, append([]float64(nil), a0...))
	if s.err != nil {
		return nil, s.err
	}
	params := s.params
	if params == nil {
		params = a0
	}
	n := len(params)
	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		cov.SetSym(i, i, 1)
	}
	return &ports.Solution{Params: append([]float64(nil), params...), Covariance: cov, Iterations: 1}, nil
}

func proportional(t *testing.T) *fitfunc.FitFunction {
	t.Helper()
	f, err := fitfunc.NewFunction(fitfunc.FunctionSpec{
		Name:   "proportional",
		N:      1,
		Syntax: "a[0] * x",
		Eval:   func(a []float64, x float64) float64 { return a[0] * x },
	})
	require.NoError(t, err)
	return f
}

func builtin(t *testing.T, name string, args ...int) *fitfunc.FitFunction {
	t.Helper()
	r := fitfunc.NewRegistry()
	require.NoError(t, fitfunc.RegisterBuiltins(r))
	f, err := r.Load(name, args...)
	require.NoError(t, err)
	return f
}

func newDataset(t *testing.T, roles dataset.Roles, columns ...dataset.Column) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(columns...)
	require.NoError(t, err)
	require.NoError(t, ds.SetRoles(roles))
	return ds
}

func scenarioDataset(t *testing.T) *dataset.Dataset {
	return newDataset(t, dataset.Roles{X: "x", Y: "y"},
		dataset.Column{Name: "x", Values: []float64{1, 2, 3, 4, 5}},
		dataset.Column{Name: "y", Values: []float64{2.1, 3.9, 6.2, 7.8, 10.1}},
	)
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	s, err := solver.New(solver.MethodLevenbergMarquardt, 0, 0)
	require.NoError(t, err)
	return NewEngine(s)
}

// TestFitProportionalScenario tests y = a*x on five records
func TestFitProportionalScenario(t *testing.T) {
	ds := scenarioDataset(t)
	result, err := newEngine(t).Fit(ds, proportional(t), nil)
	require.NoError(t, err)

	a := result.Parameters()
	require.Len(t, a, 1)
	assert.InDelta(t, 2.0, a[0], 0.01)
	assert.InDelta(t, 110.2/55, a[0], 1e-8)
	assert.Equal(t, 4, result.DegreesOfFreedom())
	assert.False(t, result.Weighted())
	assert.Equal(t, []float64{1}, result.A0())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, result.RecordIndices())
	assert.False(t, result.ID().String() == "")

	// chi2 is the plain sum of squared residuals without y errors
	chi2 := 0.0
	for _, r := range result.Residuals() {
		chi2 += r * r
	}
	assert.InDelta(t, chi2, result.ChiSquared(), 1e-12)
	assert.InDelta(t, chi2/4, result.ChiSquaredReduced(), 1e-12)

	// unweighted uncertainty is scaled by the reduced chi-square
	assert.InDelta(t, math.Sqrt(result.ChiSquaredReduced()/55), result.Uncertainties()[0], 1e-8)
	assert.InDelta(t, 100*result.Uncertainties()[0]/a[0], result.RelativeUncertainties()[0], 1e-9)

	assert.InDelta(t, distuv.ChiSquared{K: 4}.Survival(result.ChiSquared()), result.PValue(), 1e-12)
	assert.InDelta(t, a[0]*3, result.Predict(3), 1e-12)
}

// TestFitProportionalMicroScale tests the same fit with both columns in micro units
func TestFitProportionalMicroScale(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{2.1, 3.9, 6.2, 7.8, 10.1}
	for i := range xs {
		xs[i] *= 1e-6
		ys[i] *= 1e-6
	}
	ds := newDataset(t, dataset.Roles{X: "x", Y: "y"},
		dataset.Column{Name: "x", Values: xs},
		dataset.Column{Name: "y", Values: ys},
	)
	result, err := newEngine(t).Fit(ds, proportional(t), nil)
	require.NoError(t, err)
	assert.InDelta(t, 110.2/55, result.Parameters()[0], 1e-6)
	assert.NotEqual(t, result.A0()[0], result.Parameters()[0])
}

// TestFitLinearWeighted tests a weighted fit against a straight line with known errors
func TestFitLinearWeighted(t *testing.T) {
	ds := newDataset(t, dataset.Roles{X: "x", Y: "y", YErr: "dy"},
		dataset.Column{Name: "x", Values: []float64{0, 1, 2, 3, 4, 5}},
		dataset.Column{Name: "y", Values: []float64{1.1, 2.9, 5.2, 6.8, 9.1, 11.0}},
		dataset.Column{Name: "dy", Values: []float64{0.2, 0.2, 0.2, 0.2, 0.2, 0.2}},
	)

	result, err := newEngine(t).Fit(ds, builtin(t, "linear"), nil)
	require.NoError(t, err)
	assert.True(t, result.Weighted())
	assert.Equal(t, 4, result.DegreesOfFreedom())

	a := result.Parameters()
	assert.InDelta(t, 1.0, a[0], 0.15)
	assert.InDelta(t, 2.0, a[1], 0.1)

	// weighted chi2 divides each residual by its error
	chi2 := 0.0
	for _, r := range result.Residuals() {
		chi2 += (r / 0.2) * (r / 0.2)
	}
	assert.InDelta(t, chi2, result.ChiSquared(), 1e-9)

	// equal errors: slope variance is σ²/Σ(x-x̄)² without rescaling
	assert.InDelta(t, math.Sqrt(0.04/17.5), result.Uncertainties()[1], 1e-6)
	cov := result.Covariance()
	require.Len(t, cov, 2)
	assert.InDelta(t, cov[0][1], cov[1][0], 1e-12)
}

// TestFitPolynomialRecoversCoefficients tests a generated function on exact data
func TestFitPolynomialRecoversCoefficients(t *testing.T) {
	x := []float64{-2, -1, 0, 1, 2, 3}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 0.5 - 1.5*v + 2*v*v
	}
	ds := newDataset(t, dataset.Roles{X: "x", Y: "y"},
		dataset.Column{Name: "x", Values: x},
		dataset.Column{Name: "y", Values: y},
	)

	result, err := newEngine(t).Fit(ds, builtin(t, "polynomial", 2), nil)
	require.NoError(t, err)
	a := result.Parameters()
	assert.InDelta(t, 0.5, a[0], 1e-6)
	assert.InDelta(t, -1.5, a[1], 1e-6)
	assert.InDelta(t, 2.0, a[2], 1e-6)
	assert.InDelta(t, 0.0, result.ChiSquared(), 1e-9)
}

// TestFitUsesOnlySelectedRecords tests that unselected outliers do not affect the fit
func TestFitUsesOnlySelectedRecords(t *testing.T) {
	ds := newDataset(t, dataset.Roles{X: "x", Y: "y"},
		dataset.Column{Name: "x", Values: []float64{1, 2, 3, 4, 5, 6}},
		dataset.Column{Name: "y", Values: []float64{2, 4, 6, 500, 10, 12}},
	)
	require.NoError(t, ds.Unselect(3))

	result, err := newEngine(t).Fit(ds, proportional(t), nil)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, result.Parameters()[0], 1e-8)
	assert.Equal(t, 4, result.DegreesOfFreedom())
	assert.Equal(t, []int{0, 1, 2, 4, 5}, result.RecordIndices())
}

// TestFitInsufficientDegreesOfFreedom tests that the solver is never reached without spare records
func TestFitInsufficientDegreesOfFreedom(t *testing.T) {
	ds := scenarioDataset(t)
	require.NoError(t, ds.SetMask([]bool{true, true, false, false, false}))

	s := &recordingSolver{}
	_, err := NewEngine(s).Fit(ds, builtin(t, "linear"), nil)
	assert.ErrorIs(t, err, core.ErrFittingData)
	assert.Contains(t, err.Error(), "degrees of freedom 0")
	assert.Equal(t, 0, s.calls)

	ds.UnselectAll()
	_, err = NewEngine(s).Fit(ds, proportional(t), nil)
	assert.ErrorIs(t, err, core.ErrFittingData)
	assert.Equal(t, 0, s.calls)
}

// TestFitDomainViolation tests that x outside the function's domain is rejected before solving
func TestFitDomainViolation(t *testing.T) {
	ds := newDataset(t, dataset.Roles{X: "x", Y: "y"},
		dataset.Column{Name: "x", Values: []float64{0, 1, 2, 3}},
		dataset.Column{Name: "y", Values: []float64{1, 2, 3, 4}},
	)

	s := &recordingSolver{}
	_, err := NewEngine(s).Fit(ds, builtin(t, "logarithmic"), nil)
	assert.ErrorIs(t, err, core.ErrFittingData)
	assert.Contains(t, err.Error(), "record 0")
	assert.Equal(t, 0, s.calls)

	// excluding the offending record makes the data valid
	require.NoError(t, ds.Unselect(0))
	_, err = NewEngine(s).Fit(ds, builtin(t, "logarithmic"), nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, s.calls)
}

// TestFitValidationErrors tests the remaining data checks
func TestFitValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		roles dataset.Roles
		dy    []float64
		a0    []float64
	}{
		{"missing y role", dataset.Roles{X: "x"}, []float64{1, 1, 1, 1}, nil},
		{"missing x role", dataset.Roles{Y: "y"}, []float64{1, 1, 1, 1}, nil},
		{"zero y error", dataset.Roles{X: "x", Y: "y", YErr: "dy"}, []float64{1, 0, 1, 1}, nil},
		{"negative y error", dataset.Roles{X: "x", Y: "y", YErr: "dy"}, []float64{1, 1, -1, 1}, nil},
		{"wrong a0 length", dataset.Roles{X: "x", Y: "y"}, []float64{1, 1, 1, 1}, []float64{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := newDataset(t, tt.roles,
				dataset.Column{Name: "x", Values: []float64{1, 2, 3, 4}},
				dataset.Column{Name: "y", Values: []float64{2, 4, 6, 8}},
				dataset.Column{Name: "dy", Values: tt.dy},
			)
			s := &recordingSolver{}
			_, err := NewEngine(s).Fit(ds, proportional(t), tt.a0)
			assert.ErrorIs(t, err, core.ErrFittingData)
			assert.Equal(t, 0, s.calls)
		})
	}
}

// TestFitConvergenceError tests that solver failures surface as convergence errors
func TestFitConvergenceError(t *testing.T) {
	s := &recordingSolver{err: ports.ErrNotConverged}
	_, err := NewEngine(s).Fit(scenarioDataset(t), proportional(t), nil)
	assert.ErrorIs(t, err, core.ErrFittingConvergence)
	assert.ErrorIs(t, err, ports.ErrNotConverged)
	assert.True(t, core.IsFittingError(err))
}

// TestFitRejectsNonFiniteSolution tests that degenerate parameters are never returned
func TestFitRejectsNonFiniteSolution(t *testing.T) {
	s := &recordingSolver{params: []float64{math.NaN()}}
	result, err := NewEngine(s).Fit(scenarioDataset(t), proportional(t), nil)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, core.ErrFittingConvergence)
}

// TestFitInitialGuessIsDeterministic tests the default and explicit initial guesses
func TestFitInitialGuessIsDeterministic(t *testing.T) {
	ds := newDataset(t, dataset.Roles{X: "x", Y: "y"},
		dataset.Column{Name: "x", Values: []float64{-2, -1, 0, 1, 2, 3}},
		dataset.Column{Name: "y", Values: []float64{0.1, 0.6, 1.0, 0.6, 0.1, 0.0}},
	)
	s := &recordingSolver{}
	engine := NewEngine(s)

	_, err := engine.Fit(ds, builtin(t, "normal"), nil)
	require.NoError(t, err)
	_, err = engine.Fit(ds, builtin(t, "normal"), nil)
	require.NoError(t, err)
	_, err = engine.Fit(ds, builtin(t, "parabolic"), nil)
	require.NoError(t, err)

	explicit := []float64{5, 6, 7}
	_, err = engine.Fit(ds, builtin(t, "parabolic"), explicit)
	require.NoError(t, err)
	explicit[0] = 0

	require.Len(t, s.a0, 4)
	assert.Equal(t, []float64{1, 0, 1, 0}, s.a0[0])
	assert.Equal(t, s.a0[0], s.a0[1])
	assert.Equal(t, []float64{1, 1, 1}, s.a0[2])
	assert.Equal(t, []float64{5, 6, 7}, s.a0[3])
}

// TestResultIsImmutable tests that accessor copies cannot change the result
func TestResultIsImmutable(t *testing.T) {
	result, err := newEngine(t).Fit(scenarioDataset(t), proportional(t), nil)
	require.NoError(t, err)

	a := result.Parameters()
	a[0] = 100
	cov := result.Covariance()
	cov[0][0] = 100
	res := result.Residuals()
	res[0] = 100

	assert.NotEqual(t, 100.0, result.Parameters()[0])
	assert.NotEqual(t, 100.0, result.Covariance()[0][0])
	assert.NotEqual(t, 100.0, result.Residuals()[0])
}

// TestResultJSON tests the exported field names
func TestResultJSON(t *testing.T) {
	result, err := newEngine(t).Fit(scenarioDataset(t), proportional(t), nil)
	require.NoError(t, err)

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"id", "function", "a", "aerr", "arerr", "acov", "degrees_of_freedom", "chi2", "chi2_reduced", "p_probability"} {
		assert.Contains(t, decoded, key)
	}
	assert.Equal(t, "proportional", decoded["function"])
	assert.Equal(t, float64(4), decoded["degrees_of_freedom"])
}

// TestFitErrorsAreClassified tests errors.Is on a data error
func TestFitErrorsAreClassified(t *testing.T) {
	_, err := newEngine(t).Fit(nil, proportional(t), nil)
	assert.True(t, errors.Is(err, core.ErrFittingData))
}
