package analysis

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KI7MT/ki7mt-sunspot-viz/internal/solar"
)

const fixtureCSV = "YEAR,SUNACTIVITY\n1749,58.0\n1750,62.6\n1751,50.0\n"

func readTable(t *testing.T, data string) *solar.Table {
	t.Helper()
	tbl, err := solar.ReadCSV(context.Background(), strings.NewReader(data), "test", solar.Options{})
	require.NoError(t, err)
	return tbl
}

func TestDescribeFixture(t *testing.T) {
	x := []float64{58.0, 62.6, 50.0}
	d, err := Describe(x)
	require.NoError(t, err)

	mean := (58.0 + 62.6 + 50.0) / 3
	variance := (math.Pow(58.0-mean, 2) + math.Pow(62.6-mean, 2) + math.Pow(50.0-mean, 2)) / 2

	assert.Equal(t, 3, d.Count)
	assert.InDelta(t, 56.866666, d.Mean, 1e-6)
	assert.InDelta(t, math.Sqrt(variance), d.Std, 1e-9)
	assert.Equal(t, 50.0, d.Min)
	assert.InDelta(t, 54.0, d.Q1, 1e-9)
	assert.InDelta(t, 58.0, d.Median, 1e-9)
	assert.InDelta(t, 60.3, d.Q3, 1e-9)
	assert.Equal(t, 62.6, d.Max)
}

func TestDescribeIgnoresMissing(t *testing.T) {
	d, err := Describe([]float64{math.NaN(), 4, math.NaN(), 2})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Count)
	assert.Equal(t, 3.0, d.Mean)
	assert.Equal(t, 2.5, d.Q1)
	assert.Equal(t, 3.5, d.Q3)
}

func TestDescribeSingleValue(t *testing.T) {
	d, err := Describe([]float64{7})
	require.NoError(t, err)
	assert.Equal(t, 1, d.Count)
	assert.True(t, math.IsNaN(d.Std))
	assert.Equal(t, 7.0, d.Q1)
	assert.Equal(t, 7.0, d.Q3)

	// NaN statistics must still encode.
	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"std":null`)
}

func TestEmptyInput(t *testing.T) {
	all := []float64{math.NaN(), math.NaN()}

	_, err := Describe(all)
	assert.ErrorIs(t, err, solar.ErrEmptyData)

	_, err = ComputeMoments(nil)
	assert.ErrorIs(t, err, solar.ErrEmptyData)

	_, err = ComputeMoments(all)
	assert.ErrorIs(t, err, solar.ErrEmptyData)

	_, err = OutlierBounds(all)
	assert.ErrorIs(t, err, solar.ErrEmptyData)

	assert.Equal(t, 0.0, Spread(all))
}

func TestComputeMoments(t *testing.T) {
	m, err := ComputeMoments([]float64{1, 2, 3})
	require.NoError(t, err)
	assert.InDelta(t, 0, m.Skewness, 1e-12)
	assert.InDelta(t, -1.5, m.Kurtosis, 1e-12)

	// Right tail pulls skewness positive.
	m, err = ComputeMoments([]float64{1, 1, 1, 1, 10})
	require.NoError(t, err)
	assert.Greater(t, m.Skewness, 0.0)

	m, err = ComputeMoments([]float64{5, 5, 5})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(m.Skewness))
}

func TestOutlierBoundsFixture(t *testing.T) {
	b, err := OutlierBounds([]float64{58.0, 62.6, 50.0})
	require.NoError(t, err)

	assert.InDelta(t, 6.3, b.IQR, 1e-9)
	assert.InDelta(t, 44.55, b.Lower, 1e-9)
	assert.InDelta(t, 69.75, b.Upper, 1e-9)
	assert.LessOrEqual(t, b.Lower, b.Q1)
	assert.LessOrEqual(t, b.Q3, b.Upper)

	assert.True(t, b.Contains(b.Lower))
	assert.True(t, b.Contains(b.Upper))
	assert.False(t, b.Contains(b.Upper+1e-9))
}

func TestFindOutliersComplementsBounds(t *testing.T) {
	tbl := readTable(t, "YEAR,SUNACTIVITY\n1,10\n2,11\n3,12\n4,13\n5,100\n6,-80\n7,\n")

	values, err := tbl.Values(solar.DefaultColumn)
	require.NoError(t, err)
	b, err := OutlierBounds(values)
	require.NoError(t, err)

	out, err := FindOutliers(tbl, solar.DefaultColumn, b)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 5, out[0].Year)
	assert.Equal(t, 100.0, out[0].Value)
	assert.Equal(t, 6, out[1].Year)
	assert.Equal(t, solar.YearDate(6), out[1].Date)

	inside := 0
	for _, v := range values {
		if !math.IsNaN(v) && b.Contains(v) {
			inside++
		}
	}
	assert.Equal(t, 6, inside+len(out))
}

func TestFindOutliersUnknownColumn(t *testing.T) {
	tbl := readTable(t, fixtureCSV)
	_, err := FindOutliers(tbl, "SSN", Bounds{})
	assert.ErrorIs(t, err, solar.ErrDataFormat)
}

func TestSummarize(t *testing.T) {
	raw := readTable(t, "YEAR,SUNACTIVITY\n1749,58.0\n1750,\n1750,62.6\n1751,50.0\n")

	s, err := Summarize(raw, "")
	require.NoError(t, err)

	assert.Equal(t, "test", s.Source)
	assert.Equal(t, solar.DefaultColumn, s.Column)
	assert.Equal(t, 3, s.Rows)
	assert.Equal(t, 3, s.Value.Count)
	assert.InDelta(t, 56.866666, s.Value.Mean, 1e-6)
	assert.Equal(t, 1749.0, s.Year.Min)
	assert.Equal(t, 1751.0, s.Year.Max)
	assert.Equal(t, []solar.MissingCount{
		{Column: solar.YearColumn, Count: 0},
		{Column: solar.DefaultColumn, Count: 1},
	}, s.Missing)
	assert.InDelta(t, 44.55, s.Bounds.Lower, 1e-9)
	assert.Empty(t, s.Outliers)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"outliers":[]`)
}

func TestSummarizeAllMissing(t *testing.T) {
	raw := readTable(t, "YEAR,SUNACTIVITY\n1749,\n1750,NaN\n")

	_, err := Summarize(raw, solar.DefaultColumn)
	assert.ErrorIs(t, err, solar.ErrEmptyData)
}
