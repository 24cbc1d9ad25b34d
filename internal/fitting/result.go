package fitting

import (
	"encoding/json"

	"gofit/domain/core"
	"gofit/domain/dataset"
	"gofit/domain/fitfunc"
)

// Result is the immutable outcome of one fit. Accessors return copies.
type Result struct {
	id        core.ResultID
	createdAt core.Timestamp

	function *fitfunc.FitFunction
	dataset  *dataset.Dataset

	a0    []float64
	a     []float64
	aerr  []float64
	arerr []float64
	acov  [][]float64

	degreesOfFreedom  int
	chiSquared        float64
	chiSquaredReduced float64
	pValue            float64

	residuals  []float64
	indices    []int
	weighted   bool
	iterations int
}

func (r *Result) ID() core.ResultID                { return r.id }
func (r *Result) CreatedAt() core.Timestamp        { return r.createdAt }
func (r *Result) Function() *fitfunc.FitFunction   { return r.function }
func (r *Result) Dataset() *dataset.Dataset        { return r.dataset }
func (r *Result) DegreesOfFreedom() int            { return r.degreesOfFreedom }
func (r *Result) ChiSquared() float64              { return r.chiSquared }
func (r *Result) ChiSquaredReduced() float64       { return r.chiSquaredReduced }
func (r *Result) PValue() float64                  { return r.pValue }
func (r *Result) Weighted() bool                   { return r.weighted }
func (r *Result) Iterations() int                  { return r.iterations }
func (r *Result) A0() []float64                    { return cloneFloats(r.a0) }
func (r *Result) Parameters() []float64            { return cloneFloats(r.a) }
func (r *Result) Uncertainties() []float64         { return cloneFloats(r.aerr) }
func (r *Result) RelativeUncertainties() []float64 { return cloneFloats(r.arerr) }
func (r *Result) Residuals() []float64             { return cloneFloats(r.residuals) }

// RecordIndices returns the dataset indices the residuals belong to
func (r *Result) RecordIndices() []int {
	return append([]int(nil), r.indices...)
}

// Covariance returns the parameter covariance matrix
func (r *Result) Covariance() [][]float64 {
	out := make([][]float64, len(r.acov))
	for i, row := range r.acov {
		out[i] = cloneFloats(row)
	}
	return out
}

// Predict evaluates the fitted function at x
func (r *Result) Predict(x float64) float64 {
	return r.function.Eval(r.a, x)
}

type resultJSON struct {
	ID                core.ResultID  `json:"id"`
	CreatedAt         core.Timestamp `json:"created_at"`
	Function          string         `json:"function"`
	Syntax            string         `json:"syntax,omitempty"`
	A0                []float64      `json:"a0"`
	A                 []float64      `json:"a"`
	AErr              []float64      `json:"aerr"`
	ARErr             []float64      `json:"arerr"`
	ACov              [][]float64    `json:"acov"`
	DegreesOfFreedom  int            `json:"degrees_of_freedom"`
	ChiSquared        float64        `json:"chi2"`
	ChiSquaredReduced float64        `json:"chi2_reduced"`
	PValue            float64        `json:"p_probability"`
	Residuals         []float64      `json:"residuals"`
	RecordIndices     []int          `json:"record_indices"`
	Weighted          bool           `json:"weighted"`
	Iterations        int            `json:"iterations"`
}

// MarshalJSON exports the result fields
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		ID:                r.id,
		CreatedAt:         r.createdAt,
		Function:          r.function.Name(),
		Syntax:            r.function.Syntax(),
		A0:                r.a0,
		A:                 r.a,
		AErr:              r.aerr,
		ARErr:             r.arerr,
		ACov:              r.acov,
		DegreesOfFreedom:  r.degreesOfFreedom,
		ChiSquared:        r.chiSquared,
		ChiSquaredReduced: r.chiSquaredReduced,
		PValue:            r.pValue,
		Residuals:         r.residuals,
		RecordIndices:     r.indices,
		Weighted:          r.weighted,
		Iterations:        r.iterations,
	})
}

func cloneFloats(v []float64) []float64 {
	return append([]float64(nil), v...)
}
