// sunspot-report - Console statistics and four-panel chart of yearly sunspot activity
//
// Reads one of:
//   - CSV (.csv), gzip CSV (.csv.gz) or zstd CSV (.csv.zst) with YEAR and SUNACTIVITY
//   - Parquet (.parquet) with YEAR and SUNACTIVITY
//   - ClickHouse yearly aggregate (clickhouse://host:port/db.table)
//
// Prints descriptive statistics, skewness, kurtosis, missing values and IQR
// outliers, then writes the chart PNG and optionally opens it.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/sunspot-report ./cmd/sunspot-report

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"gonum.org/v1/plot/vg"

	"github.com/KI7MT/ki7mt-sunspot-viz/internal/analysis"
	"github.com/KI7MT/ki7mt-sunspot-viz/internal/chart"
	"github.com/KI7MT/ki7mt-sunspot-viz/internal/common"
	"github.com/KI7MT/ki7mt-sunspot-viz/internal/report"
	"github.com/KI7MT/ki7mt-sunspot-viz/internal/solar"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

type options struct {
	data   string
	column string
	out    string
	view   bool
	width  vg.Length
	height vg.Length
}

func main() {
	cfg, err := common.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var opts options
	flag.StringVar(&opts.data, "data", cfg.DataPath, "Data source (csv, csv.gz, csv.zst, parquet or clickhouse://)")
	flag.StringVar(&opts.column, "column", cfg.Column, "Value column to analyze")
	flag.StringVar(&opts.out, "out", "sunspots.png", "Output PNG path")
	flag.BoolVar(&opts.view, "view", false, "Open the PNG in the system viewer and wait until it is closed")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "sunspot-report v%s - Sunspot Activity Report\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Prints summary statistics and writes a four-panel chart.\n")
		fmt.Fprintf(os.Stderr, "Defaults come from SUNSPOTS_* environment variables and .env.\n\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	opts.width = vg.Length(cfg.ChartWidth) * vg.Inch
	opts.height = vg.Length(cfg.ChartHeight) * vg.Inch

	logger, err := common.NewLogger(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err = run(ctx, os.Stdout, opts, logger)
	cancel()
	if err != nil {
		logger.Error("Report failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(ctx context.Context, stdout io.Writer, opts options, logger *zap.Logger) error {
	start := time.Now()
	logger.Info("Sunspot report", zap.String("version", Version), zap.String("source", opts.data))

	raw, err := solar.Load(ctx, opts.data, solar.Options{
		Columns: []string{opts.column},
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	summary, err := analysis.Summarize(raw, opts.column)
	switch {
	case err == nil:
		if err := report.Write(stdout, summary); err != nil {
			return errors.Wrap(err, "write report")
		}
	case errors.Is(err, solar.ErrEmptyData):
		logger.Warn("No complete rows; statistics skipped", zap.String("source", opts.data))
		if err := report.WriteMissing(stdout, raw.Source(), raw.Missing()); err != nil {
			return errors.Wrap(err, "write report")
		}
	default:
		return err
	}

	fig, err := chart.Render(raw.DropMissing(), chart.Options{
		Column: opts.column,
		Width:  opts.width,
		Height: opts.height,
	})
	if err != nil {
		return err
	}
	for _, p := range fig.Panels() {
		if p.Degraded {
			logger.Info("Panel degraded", zap.String("panel", p.Name), zap.String("reason", p.Reason))
		}
	}

	if err := fig.SavePNG(opts.out); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Chart written to %s (%v)\n", opts.out, time.Since(start).Round(time.Millisecond))

	if opts.view {
		if err := openViewer(ctx, opts.out); err != nil {
			return errors.Wrap(err, "open viewer")
		}
	}
	return nil
}
