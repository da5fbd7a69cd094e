// Package chart draws the four-panel sunspot figure shared by the batch
// report and the dashboard: time series, distribution, 1900-2000 boxplot
// and linear trend, laid out 2x2 under one title.
package chart

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-faster/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/KI7MT/ki7mt-sunspot-viz/internal/solar"
)

// Defaults applied to zero Options fields.
const (
	DefaultTitle         = "Sunspot Activity Analysis"
	DefaultWidth         = 14 * vg.Inch
	DefaultHeight        = 10 * vg.Inch
	DefaultBins          = 30
	DefaultDensityPoints = 200
	DefaultBoxFrom       = 1900
	DefaultBoxTo         = 2000
)

// Options parameterises Render.
type Options struct {
	Column        string
	Title         string
	Width         vg.Length
	Height        vg.Length
	Bins          int
	DensityPoints int
	BoxFrom       int
	BoxTo         int
}

func (o Options) withDefaults() Options {
	if o.Column == "" {
		o.Column = solar.DefaultColumn
	}
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Bins <= 0 {
		o.Bins = DefaultBins
	}
	if o.DensityPoints < 2 {
		o.DensityPoints = DefaultDensityPoints
	}
	if o.BoxFrom == 0 && o.BoxTo == 0 {
		o.BoxFrom, o.BoxTo = DefaultBoxFrom, DefaultBoxTo
	}
	return o
}

// Panel names, in layout order.
const (
	PanelSeries       = "series"
	PanelDistribution = "distribution"
	PanelBox          = "boxplot"
	PanelTrend        = "trend"
)

// PanelStatus reports what a panel actually drew. A degraded panel shows
// its title and axis labels but skipped some or all of its layers.
type PanelStatus struct {
	Name     string   `json:"name"`
	Layers   []string `json:"layers"`
	Degraded bool     `json:"degraded"`
	Reason   string   `json:"reason,omitempty"`
}

func (s *PanelStatus) add(layer string) {
	s.Layers = append(s.Layers, layer)
}

func (s *PanelStatus) degrade(format string, args ...any) {
	s.Degraded = true
	if s.Reason == "" {
		s.Reason = fmt.Sprintf(format, args...)
	}
}

// Figure is a rendered 2x2 chart. It can be encoded any number of times.
type Figure struct {
	opts  Options
	plots [2][2]*plot.Plot

	mu     sync.Mutex
	panels [4]PanelStatus
}

// Render builds the four panels for column of t. Panel-level problems
// (no data, zero spread, empty year range, too few points) degrade the
// panel and never fail the figure. The only error is an unknown column.
func Render(t *solar.Table, opts Options) (*Figure, error) {
	opts = opts.withDefaults()
	if !t.HasColumn(opts.Column) {
		return nil, errors.Wrapf(solar.ErrDataFormat, "chart: column %q not loaded", opts.Column)
	}

	f := &Figure{opts: opts}
	f.plots[0][0], f.panels[0] = seriesPanel(t, opts)
	f.plots[0][1], f.panels[1] = distributionPanel(t, opts)
	f.plots[1][0], f.panels[2] = boxPanel(t, opts, func(r any) { f.markFailed(2, r) })
	f.plots[1][1], f.panels[3] = trendPanel(t, opts)
	return f, nil
}

// Title returns the figure title.
func (f *Figure) Title() string { return f.opts.Title }

// Panels returns the status of each panel in layout order.
func (f *Figure) Panels() []PanelStatus {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]PanelStatus, len(f.panels))
	for i, p := range f.panels {
		p.Layers = append([]string(nil), p.Layers...)
		out[i] = p
	}
	return out
}

// Panel returns the status of the named panel.
func (f *Figure) Panel(name string) (PanelStatus, bool) {
	for _, p := range f.Panels() {
		if p.Name == name {
			return p, true
		}
	}
	return PanelStatus{}, false
}

func (f *Figure) markFailed(i int, r any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.panels[i].Layers = nil
	f.panels[i].degrade("draw failed: %v", r)
}

// WritePNG encodes the figure as PNG.
func (f *Figure) WritePNG(w io.Writer) error {
	img := vgimg.New(f.opts.Width, f.opts.Height)
	f.draw(draw.New(img))

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return errors.Wrap(err, "encode png")
	}
	return nil
}

// SavePNG writes the figure to path through a temporary file and an
// atomic rename, so readers never see a partial image.
func (f *Figure) SavePNG(path string) error {
	tmpPath := path + ".tmp"

	out, err := os.Create(tmpPath)
	if err != nil {
		return errors.Wrapf(err, "create %s", tmpPath)
	}

	if err := f.WritePNG(out); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "close %s", tmpPath)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "rename %s", tmpPath)
	}
	return nil
}

func (f *Figure) draw(dc draw.Canvas) {
	pad := vg.Points(10)

	style := f.plots[0][0].Title.TextStyle
	style.Font.Size = vg.Points(18)
	style.XAlign = draw.XCenter
	style.YAlign = draw.YTop

	top := vg.Point{X: (dc.Min.X + dc.Max.X) / 2, Y: dc.Max.Y - pad}
	dc.FillText(style, top, f.opts.Title)
	dc.Max.Y -= style.Height(f.opts.Title) + 2*pad

	tiles := draw.Tiles{
		Rows:      2,
		Cols:      2,
		PadX:      vg.Points(30),
		PadY:      vg.Points(30),
		PadLeft:   pad,
		PadRight:  pad,
		PadTop:    pad,
		PadBottom: pad,
	}

	grid := [][]*plot.Plot{
		{f.plots[0][0], f.plots[0][1]},
		{f.plots[1][0], f.plots[1][1]},
	}
	canvases := plot.Align(grid, tiles, dc)
	for j := range grid {
		for i := range grid[j] {
			grid[j][i].Draw(canvases[j][i])
		}
	}
}
