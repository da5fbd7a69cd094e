// sunspot-dashboard - Web dashboard for yearly sunspot activity
//
// Serves the four-panel chart inline with summary statistics, the chart as
// PNG, the summary as JSON and Prometheus metrics. Tables are cached per
// source; send SIGHUP to drop the cached table and reload on the next request.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/sunspot-dashboard ./cmd/sunspot-dashboard

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"gonum.org/v1/plot/vg"

	"github.com/KI7MT/ki7mt-sunspot-viz/internal/chart"
	"github.com/KI7MT/ki7mt-sunspot-viz/internal/common"
	"github.com/KI7MT/ki7mt-sunspot-viz/internal/dashboard"
	"github.com/KI7MT/ki7mt-sunspot-viz/internal/solar"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

func main() {
	cfg, err := common.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	dataPath := flag.String("data", cfg.DataPath, "Data source (csv, csv.gz, csv.zst, parquet or clickhouse://)")
	column := flag.String("column", cfg.Column, "Value column to analyze")
	listen := flag.String("listen", cfg.Listen, "HTTP listen address")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "sunspot-dashboard v%s - Sunspot Activity Dashboard\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Defaults come from SUNSPOTS_* environment variables and .env.\n\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	logger, err := common.NewLogger(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Sunspot dashboard",
		zap.String("version", Version),
		zap.String("source", *dataPath),
		zap.String("column", *column),
	)

	metrics := dashboard.NewMetrics()
	cache := dashboard.NewCache(func(ctx context.Context, source string) (*solar.Table, error) {
		return solar.Load(ctx, source, solar.Options{
			Columns: []string{*column},
			Logger:  logger,
		})
	}, metrics)

	srv, err := dashboard.New(dashboard.Config{
		Source:          *dataPath,
		Column:          *column,
		Listen:          *listen,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Version:         Version,
		Chart: chart.Options{
			Width:  vg.Length(cfg.ChartWidth) * vg.Inch,
			Height: vg.Length(cfg.ChartHeight) * vg.Inch,
		},
	}, cache, metrics, logger)
	if err != nil {
		logger.Fatal("Dashboard setup failed", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-hup:
				cache.Invalidate(*dataPath)
				logger.Info("Cache invalidated", zap.String("source", *dataPath))
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := srv.Run(ctx); err != nil {
		logger.Error("Dashboard stopped", zap.Error(err))
		cancel()
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("Dashboard stopped")
}
