// Package dashboard serves the sunspot figure and summary over HTTP.
package dashboard

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/KI7MT/ki7mt-sunspot-viz/internal/chart"
	"github.com/KI7MT/ki7mt-sunspot-viz/internal/solar"
)

//go:embed templates/index.html
var templates embed.FS

// Config controls what the dashboard serves and where.
type Config struct {
	Source          string
	Column          string
	Listen          string
	ShutdownTimeout time.Duration
	Chart           chart.Options
	Version         string
}

// Server is the dashboard HTTP server.
type Server struct {
	cfg     Config
	cache   *Cache
	metrics *Metrics
	logger  *zap.Logger
	page    *template.Template
}

// New builds a server. A nil metrics disables instrumentation and the
// /metrics route.
func New(cfg Config, cache *Cache, metrics *Metrics, logger *zap.Logger) (*Server, error) {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Column == "" {
		cfg.Column = solar.DefaultColumn
	}
	cfg.Chart.Column = cfg.Column
	if logger == nil {
		logger = zap.NewNop()
	}

	page, err := template.ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse page template")
	}

	return &Server{
		cfg:     cfg,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		page:    page,
	}, nil
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.With(middleware.Compress(5, "text/html")).Get("/", s.handleIndex)
	r.Get("/chart.png", s.handleChart)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/summary", s.handleSummary)
		r.Get("/health", s.handleHealth)
	})

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Dashboard listening", zap.String("addr", s.cfg.Listen), zap.String("source", s.cfg.Source))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	s.logger.Info("Shutdown requested", zap.Duration("timeout", s.cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("Request",
			zap.String("id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
