package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gonum.org/v1/plot/vg"

	"github.com/KI7MT/ki7mt-sunspot-viz/internal/chart"
	"github.com/KI7MT/ki7mt-sunspot-viz/internal/solar"
)

const fixtureCSV = "YEAR,SUNACTIVITY\n1749,58.0\n1750,62.6\n1751,50.0\n"

func loadSource(ctx context.Context, source string) (*solar.Table, error) {
	return solar.Load(ctx, source, solar.Options{})
}

func newTestServer(t *testing.T, source string) (*httptest.Server, *Cache) {
	t.Helper()
	metrics := NewMetrics()
	cache := NewCache(loadSource, metrics)
	srv, err := New(Config{
		Source:  source,
		Version: "test",
		Chart:   chart.Options{Width: 5 * vg.Inch, Height: 4 * vg.Inch},
	}, cache, metrics, zap.NewNop())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts, cache
}

func writeCSV(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sunspots.csv")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestIndexRendersChart(t *testing.T) {
	ts, cache := newTestServer(t, writeCSV(t, fixtureCSV))

	resp, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, chart.DefaultTitle)
	assert.Contains(t, body, `src="data:image/png;base64,`)
	assert.Contains(t, body, "56.87")
	// The fixture has no 1900-2000 rows.
	assert.Contains(t, body, "Panel boxplot")

	// A second render is served from the cache.
	get(t, ts.URL+"/")
	assert.Equal(t, 1, cache.Len())
}

func TestIndexShowsLoadErrorInline(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.csv")
	ts, _ := newTestServer(t, missing)

	resp, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Could not load or render the data.")
	assert.Contains(t, body, "nope.csv")
	assert.Contains(t, body, "YEAR and SUNACTIVITY")
	assert.NotContains(t, body, "data:image/png")

	// The server keeps serving after the failure.
	resp, _ = get(t, ts.URL+"/api/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIndexWarnsOnEmptyTable(t *testing.T) {
	ts, _ := newTestServer(t, writeCSV(t, "YEAR,SUNACTIVITY\n1749,\n1750,NA\n"))

	resp, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "No complete SUNACTIVITY rows")
	assert.NotContains(t, body, "data:image/png")
	assert.NotContains(t, body, "Could not load")
}

func TestSourceHintFollowsFormat(t *testing.T) {
	assert.Contains(t, sourceHint("data/sunspots.csv.gz", "SUNACTIVITY"), "Expected a CSV")
	assert.Contains(t, sourceHint("data/sunspots.parquet", "SUNACTIVITY"), "Expected a Parquet file")
	assert.Contains(t, sourceHint("data/sunspots.parquet", "SUNACTIVITY"), "YEAR and SUNACTIVITY")
	assert.Contains(t, sourceHint("clickhouse://localhost:9000/solar.daily", "SUNACTIVITY"), "ClickHouse table")
	assert.Contains(t, sourceHint("data/sunspots.xlsx", "SUNACTIVITY"), "Unsupported source")
}

func TestChartPNG(t *testing.T) {
	ts, _ := newTestServer(t, writeCSV(t, fixtureCSV))

	resp, body := get(t, ts.URL+"/chart.png")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, "\x89PNG"))
}

func TestSummaryJSON(t *testing.T) {
	ts, _ := newTestServer(t, writeCSV(t, fixtureCSV))

	resp, body := get(t, ts.URL+"/api/summary")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var got struct {
		Column string `json:"column"`
		Rows   int    `json:"rows"`
		Value  struct {
			Count int     `json:"count"`
			Mean  float64 `json:"mean"`
			Q1    float64 `json:"q1"`
			Q3    float64 `json:"q3"`
		} `json:"value"`
		Bounds struct {
			Lower float64 `json:"lower"`
			Upper float64 `json:"upper"`
		} `json:"bounds"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, solar.DefaultColumn, got.Column)
	assert.Equal(t, 3, got.Rows)
	assert.Equal(t, 3, got.Value.Count)
	assert.InDelta(t, 56.866666, got.Value.Mean, 1e-6)
	assert.InDelta(t, 54.0, got.Value.Q1, 1e-9)
	assert.InDelta(t, 60.3, got.Value.Q3, 1e-9)
	assert.InDelta(t, 44.55, got.Bounds.Lower, 1e-9)
	assert.InDelta(t, 69.75, got.Bounds.Upper, 1e-9)
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		source string
		status int
	}{
		{"missing file", filepath.Join(t.TempDir(), "nope.csv"), http.StatusNotFound},
		{"bad format", writeCSV(t, "DATE,SUNACTIVITY\n1749,1\n"), http.StatusUnprocessableEntity},
		{"no complete rows", writeCSV(t, "YEAR,SUNACTIVITY\n1749,\n"), http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts, _ := newTestServer(t, tc.source)

			for _, path := range []string{"/api/summary", "/chart.png"} {
				resp, body := get(t, ts.URL+path)
				assert.Equal(t, tc.status, resp.StatusCode, path)

				var e errorResponse
				require.NoError(t, json.Unmarshal([]byte(body), &e), path)
				assert.Equal(t, tc.status, e.Status)
				assert.NotEmpty(t, e.Error)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, "data/sunspots.csv")

	resp, body := get(t, ts.URL+"/api/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var h healthResponse
	require.NoError(t, json.Unmarshal([]byte(body), &h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "test", h.Version)
	assert.Equal(t, "data/sunspots.csv", h.Source)
}

func TestMetricsExposed(t *testing.T) {
	ts, _ := newTestServer(t, writeCSV(t, fixtureCSV))
	get(t, ts.URL+"/")
	get(t, ts.URL+"/")

	resp, body := get(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `sunspots_renders_total{outcome="ok"} 2`)
	assert.Contains(t, body, `sunspots_cache_lookups_total{result="hit"} 1`)
	assert.Contains(t, body, `sunspots_cache_lookups_total{result="miss"} 1`)
	assert.Contains(t, body, "sunspots_render_seconds_bucket")
}

func TestRunShutsDownOnCancel(t *testing.T) {
	srv, err := New(Config{Source: "data/sunspots.csv", Listen: "127.0.0.1:0"},
		NewCache(loadSource, nil), nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	cancel()

	assert.NoError(t, <-done)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(solar.ErrFileAccess))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(solar.ErrDataFormat))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(solar.ErrEmptyData))
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
}
