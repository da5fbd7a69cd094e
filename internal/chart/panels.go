package chart

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/KI7MT/ki7mt-sunspot-viz/internal/analysis"
	"github.com/KI7MT/ki7mt-sunspot-viz/internal/solar"
)

var (
	seriesColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	histColor    = color.RGBA{R: 31, G: 119, B: 180, A: 110}
	densityColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	boxColor     = color.RGBA{R: 44, G: 160, B: 44, A: 140}
	fitColor     = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

func newPanel(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	return p
}

// seriesPanel plots the column against the date index. Missing values
// split the line into separate segments.
func seriesPanel(t *solar.Table, opts Options) (*plot.Plot, PanelStatus) {
	st := PanelStatus{Name: PanelSeries}
	p := newPanel("Sunspot activity over time", "Year", opts.Column)
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006"}
	p.Add(plotter.NewGrid())

	values, _ := t.Values(opts.Column)
	dates := t.Dates()

	var segment plotter.XYs
	flush := func() {
		if len(segment) == 0 {
			return
		}
		line, err := plotter.NewLine(segment)
		segment = nil
		if err != nil {
			st.degrade("series: %v", err)
			return
		}
		line.Color = seriesColor
		line.Width = vg.Points(1)
		p.Add(line)
		if len(st.Layers) == 0 {
			st.add("line")
		}
	}
	for i, v := range values {
		if math.IsNaN(v) {
			flush()
			continue
		}
		segment = append(segment, plotter.XY{X: float64(dates[i].Unix()), Y: v})
	}
	flush()

	if len(st.Layers) == 0 {
		st.degrade("no values")
	}
	return p, st
}

// distributionPanel draws a unit-area histogram overlaid with a Gaussian
// kernel density estimate.
func distributionPanel(t *solar.Table, opts Options) (*plot.Plot, PanelStatus) {
	st := PanelStatus{Name: PanelDistribution}
	p := newPanel("Distribution of sunspot activity", opts.Column, "Density")
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	values, _ := t.Values(opts.Column)
	x := finiteValues(values)
	if len(x) == 0 {
		st.degrade("no values")
		return p, st
	}

	hist, err := plotter.NewHist(plotter.Values(x), opts.Bins)
	if err != nil {
		st.degrade("histogram: %v", err)
		return p, st
	}
	hist.Normalize(1)
	hist.FillColor = histColor
	p.Add(hist)
	p.Legend.Add("Histogram", hist)
	st.add("histogram")

	if analysis.Spread(x) == 0 {
		st.degrade("zero spread")
		return p, st
	}

	xys, err := Density(x, opts.DensityPoints)
	if err != nil {
		st.degrade("density: %v", err)
		return p, st
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		st.degrade("density: %v", err)
		return p, st
	}
	line.Color = densityColor
	line.Width = vg.Points(2)
	p.Add(line)
	p.Legend.Add("KDE", line)
	st.add("density")

	return p, st
}

// boxPanel draws a horizontal box of the column restricted to the years
// BoxFrom..BoxTo. Any failure while slicing or drawing leaves an empty,
// labelled panel.
func boxPanel(t *solar.Table, opts Options, onPanic func(any)) (p *plot.Plot, st PanelStatus) {
	title := fmt.Sprintf("Sunspot activity %d-%d", opts.BoxFrom, opts.BoxTo)
	p = newPanel(title, opts.Column, "")
	p.Y.Tick.Marker = plot.ConstantTicks{}
	st = PanelStatus{Name: PanelBox}

	defer func() {
		if r := recover(); r != nil {
			p = newPanel(title, opts.Column, "")
			p.Y.Tick.Marker = plot.ConstantTicks{}
			st = PanelStatus{Name: PanelBox}
			st.degrade("boxplot: %v", r)
		}
	}()

	values, _ := t.Between(opts.BoxFrom, opts.BoxTo).Values(opts.Column)
	x := finiteValues(values)
	if len(x) == 0 {
		st.degrade("no rows in %d-%d", opts.BoxFrom, opts.BoxTo)
		return p, st
	}

	box, err := plotter.NewBoxPlot(vg.Points(50), 0, plotter.Values(x))
	if err != nil {
		st.degrade("boxplot: %v", err)
		return p, st
	}
	box.Horizontal = true
	box.FillColor = boxColor
	p.Add(guarded{Plotter: box, onPanic: onPanic})
	st.add("box")

	return p, st
}

// trendPanel scatters year against value and overlays the least-squares
// line. Fewer than two points leave the axes empty.
func trendPanel(t *solar.Table, opts Options) (*plot.Plot, PanelStatus) {
	st := PanelStatus{Name: PanelTrend}
	p := newPanel("Trend of sunspot activity", "Year", opts.Column)
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	values, _ := t.Values(opts.Column)
	years := t.Years()

	var xs, ys []float64
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		xs = append(xs, float64(years[i]))
		ys = append(ys, v)
	}
	if len(xs) < 2 {
		st.degrade("need at least 2 points, have %d", len(xs))
		return p, st
	}

	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		st.degrade("scatter: %v", err)
		return p, st
	}
	scatter.Color = seriesColor
	scatter.Shape = draw.CircleGlyph{}
	scatter.Radius = vg.Points(1.5)
	p.Add(scatter)
	p.Legend.Add("Observed", scatter)
	st.add("scatter")

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	lo, hi := floats.Min(xs), floats.Max(xs)
	fit, err := plotter.NewLine(plotter.XYs{
		{X: lo, Y: alpha + beta*lo},
		{X: hi, Y: alpha + beta*hi},
	})
	if err != nil {
		st.degrade("fit: %v", err)
		return p, st
	}
	fit.Color = fitColor
	fit.Width = vg.Points(2)
	fit.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	p.Add(fit)
	p.Legend.Add(fmt.Sprintf("Trend (slope %.3f/yr)", beta), fit)
	st.add("fit")

	return p, st
}

func finiteValues(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// guarded recovers a panic raised while its plotter draws.
type guarded struct {
	plot.Plotter
	onPanic func(any)
}

func (g guarded) Plot(c draw.Canvas, p *plot.Plot) {
	defer func() {
		if r := recover(); r != nil && g.onPanic != nil {
			g.onPanic(r)
		}
	}()
	g.Plotter.Plot(c, p)
}

func (g guarded) DataRange() (xmin, xmax, ymin, ymax float64) {
	if dr, ok := g.Plotter.(plot.DataRanger); ok {
		return dr.DataRange()
	}
	return math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)
}

func (g guarded) GlyphBoxes(p *plot.Plot) []plot.GlyphBox {
	if gb, ok := g.Plotter.(plot.GlyphBoxer); ok {
		return gb.GlyphBoxes(p)
	}
	return nil
}
