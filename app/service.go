package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/powerplant/api/productionplan"
	"github.com/kilianp07/powerplant/config"
	"github.com/kilianp07/powerplant/core/dispatch"
	coremetrics "github.com/kilianp07/powerplant/core/metrics"
	"github.com/kilianp07/powerplant/infra/logger"
	"github.com/kilianp07/powerplant/infra/metrics"
)

// Service serves the production plan API.
type Service struct {
	cfg    *config.Config
	log    logger.Logger
	router chi.Router

	gatherer prometheus.Gatherer

	mu   sync.Mutex
	addr string
}

// New creates a Service from the configuration using the default Prometheus
// registry.
func New(cfg *config.Config) (*Service, error) {
	return NewWithRegistry(cfg, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewWithRegistry creates a Service registering the handler metrics on reg and
// exposing gatherer on the metrics route.
func NewWithRegistry(cfg *config.Config, reg prometheus.Registerer, gatherer prometheus.Gatherer) (*Service, error) {
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	logg := logger.New("service")

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	handler := productionplan.NewHandlerWithRegistry(
		dispatch.NewMeritOrderDispatcher(),
		sink,
		logger.New("productionplan"),
		productionplan.Options{
			RejectInfeasible: cfg.Dispatch.RejectInfeasible,
			MaxBodyBytes:     cfg.Server.MaxBodyBytes,
		},
		reg,
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(logger.New("http")))
	r.Use(middleware.Recoverer)
	if t := cfg.Server.RequestTimeout(); t > 0 {
		r.Use(middleware.Timeout(t))
	}

	r.Method(http.MethodPost, "/productionplan", handler)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			logg.Errorf("write health: %v", err)
		}
	})
	if cfg.Metrics.Expose {
		r.Method(http.MethodGet, cfg.Metrics.Path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return &Service{cfg: cfg, log: logg, router: r, gatherer: gatherer, addr: cfg.Server.Address}, nil
}

// Handler returns the HTTP handler of the service.
func (s *Service) Handler() http.Handler { return s.router }

// Addr returns the listening address once Run has started listening.
func (s *Service) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run serves the API and blocks until the context is cancelled, then shuts
// the server down gracefully.
func (s *Service) Run(ctx context.Context) error {
	if addr := s.cfg.Metrics.Address; addr != "" {
		mln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("metrics listen: %w", err)
		}
		go func() {
			if err := metrics.StartPromServer(ctx, mln, s.cfg.Metrics.Path, s.gatherer); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	ln, err := net.Listen("tcp", s.cfg.Server.Address)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves the API on ln until the context is cancelled.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: s.cfg.Server.RequestTimeout()}
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("shutdown server: %v", err)
		}
	}()

	s.log.Infof("production plan API listening on %s", ln.Addr())
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-done
		return nil
	}
	return err
}
