package analysis

import (
	"encoding/json"
	"math"
	"time"

	"github.com/KI7MT/ki7mt-sunspot-viz/internal/solar"
)

// Whisker is the IQR multiplier of the outlier fences.
const Whisker = 1.5

// Bounds are the closed outlier fences Q1−1.5·IQR and Q3+1.5·IQR.
type Bounds struct {
	Q1    float64 `json:"q1"`
	Q3    float64 `json:"q3"`
	IQR   float64 `json:"iqr"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// OutlierBounds computes the fences of the non-missing values.
func OutlierBounds(values []float64) (Bounds, error) {
	d, err := Describe(values)
	if err != nil {
		return Bounds{}, err
	}
	return boundsOf(d), nil
}

func boundsOf(d Description) Bounds {
	iqr := d.Q3 - d.Q1
	return Bounds{
		Q1:    d.Q1,
		Q3:    d.Q3,
		IQR:   iqr,
		Lower: d.Q1 - Whisker*iqr,
		Upper: d.Q3 + Whisker*iqr,
	}
}

// Contains reports whether v lies inside [Lower, Upper].
func (b Bounds) Contains(v float64) bool {
	return v >= b.Lower && v <= b.Upper
}

// Outlier is one row whose value falls outside the fences.
type Outlier struct {
	Year  int
	Date  time.Time
	Value float64
}

// MarshalJSON renders the date as YYYY-MM-DD.
func (o Outlier) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Year  int     `json:"year"`
		Date  string  `json:"date"`
		Value float64 `json:"value"`
	}{o.Year, o.Date.Format(time.DateOnly), o.Value})
}

// FindOutliers returns the rows of column strictly outside b, in table
// order. Missing values are never outliers.
func FindOutliers(t *solar.Table, column string, b Bounds) ([]Outlier, error) {
	values, err := t.Values(column)
	if err != nil {
		return nil, err
	}
	years := t.Years()
	dates := t.Dates()

	out := []Outlier{}
	for i, v := range values {
		if math.IsNaN(v) || b.Contains(v) {
			continue
		}
		out = append(out, Outlier{Year: years[i], Date: dates[i], Value: v})
	}
	return out, nil
}
