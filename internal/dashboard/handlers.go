package dashboard

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/KI7MT/ki7mt-sunspot-viz/internal/analysis"
	"github.com/KI7MT/ki7mt-sunspot-viz/internal/chart"
	"github.com/KI7MT/ki7mt-sunspot-viz/internal/solar"
)

type pageData struct {
	Title   string
	Source  string
	Column  string
	Version string
	Chart   template.URL
	Panels  []chart.PanelStatus
	Summary *analysis.Summary
	Warning string
	Error   string
	Hint    string
}

type errorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Source  string `json:"source"`
	Cached  int    `json:"cached"`
}

// view is one evaluation of the dashboard: the cached raw table, its
// complete rows and the figure drawn from them.
type view struct {
	raw     *solar.Table
	table   *solar.Table
	summary *analysis.Summary
	figure  *chart.Figure
}

// build loads through the cache and renders. Zero complete rows return
// ErrEmptyData with raw still set so callers can report missing counts.
func (s *Server) build(ctx context.Context) (*view, error) {
	raw, err := s.cache.Get(ctx, s.cfg.Source)
	if err != nil {
		return nil, err
	}
	v := &view{raw: raw, table: raw.DropMissing()}
	if v.table.Len() == 0 {
		return v, errors.Wrapf(solar.ErrEmptyData, "%s has no complete rows", s.cfg.Source)
	}

	if v.summary, err = analysis.Summarize(raw, s.cfg.Column); err != nil {
		return v, err
	}
	if v.figure, err = chart.Render(v.table, s.cfg.Chart); err != nil {
		return v, err
	}
	return v, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	data := pageData{
		Title:   s.title(),
		Source:  s.cfg.Source,
		Column:  s.cfg.Column,
		Version: s.cfg.Version,
	}

	v, err := s.build(r.Context())
	switch {
	case err == nil:
		var buf bytes.Buffer
		if err := v.figure.WritePNG(&buf); err != nil {
			s.fail(&data, err)
			break
		}
		data.Chart = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()))
		data.Panels = v.figure.Panels()
		data.Summary = v.summary
		s.metrics.render(outcomeOK, time.Since(start))
	case errors.Is(err, solar.ErrEmptyData) && v != nil:
		data.Warning = fmt.Sprintf("No complete %s rows found in %s; nothing to plot.", s.cfg.Column, s.cfg.Source)
		s.metrics.render(outcomeEmpty, time.Since(start))
	default:
		s.fail(&data, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		s.logger.Error("Page render failed", zap.Error(err))
	}
}

// fail turns a load or render error into the inline message and hint.
func (s *Server) fail(data *pageData, err error) {
	s.logger.Warn("Dashboard render failed", zap.String("source", s.cfg.Source), zap.Error(err))
	s.metrics.render(outcomeError, 0)
	data.Error = err.Error()
	data.Hint = sourceHint(s.cfg.Source, s.cfg.Column)
}

// sourceHint describes what the configured source is expected to hold.
func sourceHint(source, column string) string {
	switch solar.DetectFormat(source) {
	case solar.FormatCSV, solar.FormatCSVGzip, solar.FormatCSVZstd:
		return fmt.Sprintf("Expected a CSV at %q with a header containing %s and %s.",
			source, solar.YearColumn, column)
	case solar.FormatParquet:
		return fmt.Sprintf("Expected a Parquet file at %q with columns %s and %s.",
			source, solar.YearColumn, column)
	case solar.FormatClickHouse:
		return fmt.Sprintf("Expected a reachable ClickHouse table at %q with date and ssn columns.", source)
	}
	return fmt.Sprintf("Unsupported source %q; use .csv, .csv.gz, .csv.zst, .parquet or clickhouse://host:port/db.table.", source)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	v, err := s.build(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := v.figure.WritePNG(&buf); err != nil {
		s.renderError(w, r, err)
		return
	}
	s.metrics.render(outcomeOK, time.Since(start))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Debug("Write chart", zap.Error(err))
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	raw, err := s.cache.Get(r.Context(), s.cfg.Source)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	summary, err := analysis.Summarize(raw, s.cfg.Column)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, healthResponse{
		Status:  "ok",
		Version: s.cfg.Version,
		Source:  s.cfg.Source,
		Cached:  s.cache.Len(),
	})
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		s.logger.Warn("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	s.metrics.render(outcomeError, 0)

	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: err.Error(), Status: status})
}

// statusFor maps the loader's error classes onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, solar.ErrFileAccess):
		return http.StatusNotFound
	case errors.Is(err, solar.ErrDataFormat), errors.Is(err, solar.ErrEmptyData):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) title() string {
	if s.cfg.Chart.Title != "" {
		return s.cfg.Chart.Title
	}
	return chart.DefaultTitle
}
