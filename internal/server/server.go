// Package server is the HTTP surface of termlibs: install scripts, the
// asset API, static pages, health and metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/netutil"

	"github.com/termlibs/termlibs/internal/apps"
	"github.com/termlibs/termlibs/internal/asset"
	"github.com/termlibs/termlibs/internal/buildinfo"
	"github.com/termlibs/termlibs/internal/config"
	"github.com/termlibs/termlibs/internal/log"
	"github.com/termlibs/termlibs/internal/release"
	"github.com/termlibs/termlibs/internal/site"
)

const (
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 120 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// Fetcher lists the assets of a release. *release.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, owner, repo, version string) (*release.Release, error)
}

// Server serves the termlibs HTTP API.
type Server struct {
	cfg      config.Config
	registry *apps.Registry
	fetcher  Fetcher
	pages    *site.Pages
	logger   log.Logger
	matcher  *asset.Matcher
	metrics  *metrics
	gatherer prometheus.Gatherer
	handler  http.Handler
}

// New creates a Server. Its dependencies are fixed for its lifetime.
func New(cfg config.Config, registry *apps.Registry, fetcher Fetcher, pages *site.Pages, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNoop()
	}
	reg := prometheus.NewRegistry()
	bi := buildinfo.Read()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   "termlibs",
			Name:        "build_info",
			Help:        "Always 1; labeled with the running termlibs version.",
			ConstLabels: prometheus.Labels{"version": bi.String(), "goversion": bi.GoVersion},
		}, func() float64 { return 1 }),
	)

	s := &Server{
		cfg:      cfg,
		registry: registry,
		fetcher:  fetcher,
		pages:    pages,
		logger:   logger,
		matcher:  asset.NewMatcher(logger),
		metrics:  newMetrics(reg),
		gatherer: reg,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /install/{app}", s.handleInstall)
	mux.HandleFunc("GET /api/v1/assets/{app}", s.handleAssets)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", s.handleNotFound)

	s.handler = s.logRequests(gzhttp.GzipHandler(s.instrument(mux)))
	return s
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on the configured address until ctx is canceled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener. At most cfg.MaxConns
// connections are accepted at once.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.cfg.MaxConns > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConns)
	}
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", ln.Addr().String(), "max_conns", s.cfg.MaxConns)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
