package analysis

import (
	"github.com/go-faster/errors"

	"github.com/KI7MT/ki7mt-sunspot-viz/internal/solar"
)

// Summary is everything the report and the dashboard print about a column.
type Summary struct {
	Source   string               `json:"source"`
	Column   string               `json:"column"`
	Rows     int                  `json:"rows"`
	Year     Description          `json:"year"`
	Value    Description          `json:"value"`
	Moments  Moments              `json:"moments"`
	Missing  []solar.MissingCount `json:"missing"`
	Bounds   Bounds               `json:"bounds"`
	Outliers []Outlier            `json:"outliers"`
}

// Summarize describes column of raw. Missing counts come from raw as
// loaded; every other figure is computed after incomplete rows are dropped.
func Summarize(raw *solar.Table, column string) (*Summary, error) {
	if column == "" {
		column = solar.DefaultColumn
	}

	t := raw.DropMissing()
	values, err := t.Values(column)
	if err != nil {
		return nil, err
	}

	s := &Summary{
		Source:  raw.Source(),
		Column:  column,
		Rows:    t.Len(),
		Missing: raw.Missing(),
	}

	if s.Value, err = Describe(values); err != nil {
		return nil, errors.Wrapf(err, "summarize %s", column)
	}
	if s.Moments, err = ComputeMoments(values); err != nil {
		return nil, errors.Wrapf(err, "summarize %s", column)
	}

	years := make([]float64, t.Len())
	for i, y := range t.Years() {
		years[i] = float64(y)
	}
	if s.Year, err = Describe(years); err != nil {
		return nil, errors.Wrapf(err, "summarize %s", solar.YearColumn)
	}

	s.Bounds = boundsOf(s.Value)
	if s.Outliers, err = FindOutliers(t, column, s.Bounds); err != nil {
		return nil, err
	}
	return s, nil
}
