package chart

import (
	"math"

	"github.com/aclements/go-moremath/stats"
	"github.com/go-faster/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot/plotter"

	"github.com/KI7MT/ki7mt-sunspot-viz/internal/solar"
)

// ScottBandwidth returns n^(-1/5)·σ, Scott's rule for a Gaussian kernel
// with σ the sample standard deviation.
func ScottBandwidth(x []float64) float64 {
	return math.Pow(float64(len(x)), -0.2) * stat.StdDev(x, nil)
}

// Density evaluates a Gaussian kernel density estimate of x at n evenly
// spaced points spanning [min(x), max(x)]. It needs at least two distinct
// values.
func Density(x []float64, n int) (plotter.XYs, error) {
	if len(x) == 0 {
		return nil, errors.Wrap(solar.ErrEmptyData, "density")
	}
	if n < 2 {
		n = DefaultDensityPoints
	}

	bw := ScottBandwidth(x)
	if !(bw > 0) || math.IsInf(bw, 0) {
		return nil, errors.Errorf("density: degenerate bandwidth %v", bw)
	}

	kde := stats.KDE{
		Sample:    stats.Sample{Xs: x},
		Kernel:    stats.GaussianKernel,
		Bandwidth: bw,
	}

	grid := floats.Span(make([]float64, n), floats.Min(x), floats.Max(x))
	xys := make(plotter.XYs, n)
	for i, g := range grid {
		xys[i] = plotter.XY{X: g, Y: kde.PDF(g)}
	}
	return xys, nil
}
