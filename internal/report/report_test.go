package report

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KI7MT/ki7mt-sunspot-viz/internal/analysis"
	"github.com/KI7MT/ki7mt-sunspot-viz/internal/solar"
)

func summarize(t *testing.T, data string) *analysis.Summary {
	t.Helper()
	raw, err := solar.ReadCSV(context.Background(), strings.NewReader(data), "fixture.csv", solar.Options{})
	require.NoError(t, err)
	s, err := analysis.Summarize(raw, solar.DefaultColumn)
	require.NoError(t, err)
	return s
}

func TestWriteFixture(t *testing.T) {
	s := summarize(t, "YEAR,SUNACTIVITY\n1749,58.0\n1750,62.6\n1751,50.0\n1752,\n")

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, s))
	out := buf.String()

	assert.Contains(t, out, "Sunspot Activity Report")
	assert.Contains(t, out, "fixture.csv")
	assert.Regexp(t, `count\s+3\s+3`, out)
	assert.Regexp(t, `mean\s+1750\.00\s+56\.87`, out)
	assert.Regexp(t, `25%\s+1749\.50\s+54\.00`, out)
	assert.Regexp(t, `75%\s+1750\.50\s+60\.30`, out)
	assert.Regexp(t, `SUNACTIVITY\s+1\n`, out)
	assert.Regexp(t, `Lower bound:\s+44\.55`, out)
	assert.Regexp(t, `Upper bound:\s+69\.75`, out)
	assert.Contains(t, out, "Outliers (0)")
	assert.Contains(t, out, "none")
}

func TestWriteOutliers(t *testing.T) {
	s := summarize(t, "YEAR,SUNACTIVITY\n1,10\n2,11\n3,12\n4,13\n5,100\n")

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, s))
	out := buf.String()

	assert.Contains(t, out, "Outliers (1)")
	assert.Regexp(t, `0005-01-01\s+100\.00`, out)
}

func TestWriteMissing(t *testing.T) {
	var buf bytes.Buffer
	err := WriteMissing(&buf, "empty.csv", []solar.MissingCount{
		{Column: solar.YearColumn, Count: 0},
		{Column: solar.DefaultColumn, Count: 4},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "empty.csv")
	assert.Regexp(t, `SUNACTIVITY\s+4`, out)
	assert.NotContains(t, out, "Outlier")
}
