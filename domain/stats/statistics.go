package stats

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// Statistics is an immutable descriptive summary of a numeric sequence.
// A nil *Statistics means "unavailable" (no values were selected).
type Statistics struct {
	Count             int     `json:"count"`
	Mean              float64 `json:"mean"`
	Variance          float64 `json:"variance"`
	StandardDeviation float64 `json:"standard_deviation"`
	Minimum           float64 `json:"minimum"`
	Maximum           float64 `json:"maximum"`
	Median            float64 `json:"median"`
}

// FromValues computes statistics over values. It returns nil, nil for an empty input.
// Variance uses the n-1 denominator; a single value has zero variance.
func FromValues(values []float64) (*Statistics, error) {
	if len(values) == 0 {
		return nil, nil
	}

	mean, err := stats.Mean(values)
	if err != nil {
		return nil, fmt.Errorf("mean: %w", err)
	}
	min, err := stats.Min(values)
	if err != nil {
		return nil, fmt.Errorf("min: %w", err)
	}
	max, err := stats.Max(values)
	if err != nil {
		return nil, fmt.Errorf("max: %w", err)
	}
	median, err := stats.Median(values)
	if err != nil {
		return nil, fmt.Errorf("median: %w", err)
	}

	variance := 0.0
	if len(values) > 1 {
		variance, err = stats.SampleVariance(values)
		if err != nil {
			return nil, fmt.Errorf("variance: %w", err)
		}
	}

	return &Statistics{
		Count:             len(values),
		Mean:              mean,
		Variance:          variance,
		StandardDeviation: math.Sqrt(variance),
		Minimum:           min,
		Maximum:           max,
		Median:            median,
	}, nil
}

// Equal reports whether two snapshots agree within a relative tolerance.
// Two nil snapshots are equal.
func (s *Statistics) Equal(other *Statistics, rel float64) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.Count != other.Count {
		return false
	}
	pairs := [][2]float64{
		{s.Mean, other.Mean},
		{s.Variance, other.Variance},
		{s.StandardDeviation, other.StandardDeviation},
		{s.Minimum, other.Minimum},
		{s.Maximum, other.Maximum},
		{s.Median, other.Median},
	}
	for _, p := range pairs {
		if !closeEnough(p[0], p[1], rel) {
			return false
		}
	}
	return true
}

func closeEnough(a, b, rel float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= rel*math.Max(math.Abs(a), math.Abs(b))
}
