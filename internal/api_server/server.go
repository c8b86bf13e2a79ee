package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/psyeval/recruitment/internal/store"
	"github.com/psyeval/recruitment/pkg/metrics"
	"github.com/psyeval/recruitment/pkg/middleware"
	"go.uber.org/zap"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
	readinessTimeout        = 2 * time.Second
)

// Server is the operations endpoint of the recruitment core: prometheus
// metrics and health checks. Business operations are not exposed over HTTP.
type Server struct {
	store    store.Store
	listener net.Listener
	registry *prometheus.Registry
}

type healthStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// New returns a new ops server. Collectors owned by the server live in their
// own registry and are served next to the process-wide default one.
func New(s store.Store, listener net.Listener) *Server {
	return &Server{
		store:    s,
		listener: listener,
		registry: prometheus.NewRegistry(),
	}
}

func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("ops_server", nil)
	metricMiddleware.MustRegister(s.registry)
	s.registry.MustRegister(metrics.NewCandidatureStatusCollector(s.store))

	router.Use(
		chiMiddleware.RequestID,
		middleware.RequestID,
		metricMiddleware.Handler,
		middleware.Logger("ops_server"),
		chiMiddleware.Recoverer,
	)

	gatherers := prometheus.Gatherers{prometheus.DefaultGatherer, s.registry}
	router.Handle("/metrics", promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{}))
	router.Get("/health", s.live)
	router.Get("/health/ready", s.ready)

	return router
}

func (s *Server) live(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, healthStatus{Status: "ok"})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		zap.S().Named("ops_server").Warnw("store is not reachable", "error", err)
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, healthStatus{Status: "unavailable", Error: err.Error()})
		return
	}
	render.JSON(w, r, healthStatus{Status: "ok"})
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("ops_server").Info("Initializing ops server")
	srv := http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		zap.S().Named("ops_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
	}()

	zap.S().Named("ops_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}
