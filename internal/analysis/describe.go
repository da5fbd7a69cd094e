// Package analysis computes descriptive statistics, distribution moments
// and interquartile-range outliers of a solar.Table column.
package analysis

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/go-faster/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/KI7MT/ki7mt-sunspot-viz/internal/solar"
)

// Description holds the count, location and spread of a sample.
type Description struct {
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Describe computes count, mean, unbiased standard deviation, extremes and
// quartiles of the non-missing values. Std is NaN for a single value.
func Describe(values []float64) (Description, error) {
	x := present(values)
	if len(x) == 0 {
		return Description{}, errors.Wrap(solar.ErrEmptyData, "describe")
	}
	sort.Float64s(x)

	d := Description{
		Count:  len(x),
		Mean:   stat.Mean(x, nil),
		Std:    math.NaN(),
		Min:    x[0],
		Q1:     quantile(x, 0.25),
		Median: quantile(x, 0.50),
		Q3:     quantile(x, 0.75),
		Max:    x[len(x)-1],
	}
	if len(x) > 1 {
		d.Std = stat.StdDev(x, nil)
	}
	return d, nil
}

// Moments are the standardized third and fourth moments of a sample.
type Moments struct {
	Skewness float64
	Kurtosis float64
}

// ComputeMoments returns skewness m3/m2^1.5 and excess kurtosis m4/m2²−3
// from population central moments. Constant samples yield NaN.
func ComputeMoments(values []float64) (Moments, error) {
	x := present(values)
	if len(x) == 0 {
		return Moments{}, errors.Wrap(solar.ErrEmptyData, "moments")
	}

	m2 := stat.Moment(2, x, nil)
	m3 := stat.Moment(3, x, nil)
	m4 := stat.Moment(4, x, nil)
	return Moments{
		Skewness: m3 / math.Pow(m2, 1.5),
		Kurtosis: m4/(m2*m2) - 3,
	}, nil
}

// quantile interpolates linearly between the closest ranks of sorted x.
// This is the estimator NumPy and pandas use by default.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i >= n-1 {
		return sorted[n-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// present returns a copy of values without NaN.
func present(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Spread returns max−min of the non-missing values, or 0 when there are none.
func Spread(values []float64) float64 {
	x := present(values)
	if len(x) == 0 {
		return 0
	}
	return floats.Max(x) - floats.Min(x)
}

// MarshalJSON writes non-finite statistics as null.
func (d Description) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Count  int      `json:"count"`
		Mean   *float64 `json:"mean"`
		Std    *float64 `json:"std"`
		Min    *float64 `json:"min"`
		Q1     *float64 `json:"q1"`
		Median *float64 `json:"median"`
		Q3     *float64 `json:"q3"`
		Max    *float64 `json:"max"`
	}{d.Count, finite(d.Mean), finite(d.Std), finite(d.Min), finite(d.Q1),
		finite(d.Median), finite(d.Q3), finite(d.Max)})
}

// MarshalJSON writes non-finite moments as null.
func (m Moments) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Skewness *float64 `json:"skewness"`
		Kurtosis *float64 `json:"kurtosis"`
	}{finite(m.Skewness), finite(m.Kurtosis)})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
