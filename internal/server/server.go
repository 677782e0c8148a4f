// Package server exposes the monitor over HTTP: the rendered dashboard,
// a JSON API over the tracker, and a websocket stream of live tracking
// results fed by a background collection loop.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"modelhub-monitor/internal/config"
	"modelhub-monitor/internal/dashboard"
	"modelhub-monitor/internal/logging"
	"modelhub-monitor/internal/monitoring"
	"modelhub-monitor/internal/registry"
)

// Server serves the dashboard and metrics API for a model catalog.
type Server struct {
	cfg       *config.Config
	logger    logging.Logger
	catalog   *registry.Registry
	collector *monitoring.Collector
	tracker   *monitoring.Tracker
	builder   *dashboard.Builder
	renderer  *dashboard.Renderer
	hub       *Hub
	mux       *chi.Mux
	upgrader  websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
}

// New wires the router. Start or Run must be called before the
// websocket endpoint can accept subscribers.
func New(cfg *config.Config, catalog *registry.Registry, collector *monitoring.Collector, tracker *monitoring.Tracker, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.WithComponent("server")
	}

	ctx, cancel := context.WithCancel(context.Background())

	builder := dashboard.NewBuilder(nil)
	builder.SetTheme(cfg.UI.Theme)

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		catalog:   catalog,
		collector: collector,
		tracker:   tracker,
		builder:   builder,
		renderer:  dashboard.NewRenderer(),
		hub:       NewHub(logger),
		mux:       chi.NewRouter(),
		ctx:       ctx,
		cancel:    cancel,
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      checkOrigin,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) setupMiddleware() {
	s.mux.Use(chimiddleware.Recoverer)
	s.mux.Use(chimiddleware.RequestID)
	s.mux.Use(s.timeoutMiddleware())
	s.mux.Use(chimiddleware.RequestSize(1 << 20))
	s.mux.Use(chimiddleware.Heartbeat("/ping"))
}

// timeoutMiddleware applies the API timeout everywhere except the
// websocket endpoints, which stay open indefinitely.
func (s *Server) timeoutMiddleware() func(http.Handler) http.Handler {
	timeout := time.Duration(s.cfg.Server.APITimeoutSeconds) * time.Second
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if strings.HasPrefix(req.URL.Path, "/ws") {
				next.ServeHTTP(w, req)
				return
			}
			chimiddleware.Timeout(timeout)(next).ServeHTTP(w, req)
		})
	}
}

func (s *Server) setupRoutes() {
	s.mux.Get("/", s.handleDashboard)

	s.mux.Route("/api/v1", func(r chi.Router) {
		r.Get("/models", s.handleModels)
		r.Get("/models/{name}/summary", s.handleModelSummary)
		r.Get("/models/{name}/uptime", s.handleModelUptime)
		r.Get("/overview", s.handleOverview)
		r.Get("/alerts", s.handleAlerts)
		r.Get("/thresholds", s.handleGetThresholds)
		r.Put("/thresholds", s.handlePutThresholds)
	})

	s.mux.Get("/ws/metrics", s.handleUpgrade)

	s.mux.NotFound(s.handleNotFound)
	s.mux.MethodNotAllowed(s.handleMethodNotAllowed)
}

// Start launches the hub and the background collection loop.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server already running")
	}

	go s.hub.Run(s.ctx)
	go s.collectLoop(s.ctx)

	s.running = true
	s.logger.Info("collection loop started", "interval", s.cfg.Monitor.Interval().String())
	return nil
}

// Stop cancels the hub and collection loop and closes all websocket
// connections.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return errors.New("server is not running")
	}

	s.cancel()
	s.running = false
	return nil
}

// Run starts the server and blocks until the context is canceled or the
// listener fails, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	defer func() { _ = s.Stop() }()

	srv := &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.mux,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return <-errCh
}

// collectLoop samples every registered model on the configured
// interval and pushes results to websocket subscribers.
func (s *Server) collectLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Monitor.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.CollectOnce()
		case <-ctx.Done():
			return
		}
	}
}

// CollectOnce runs a single collection pass over the catalog.
func (s *Server) CollectOnce() {
	for _, m := range s.catalog.All() {
		sample := s.collector.Collect(m)
		result := s.tracker.Track(m.Name, sample)
		s.hub.BroadcastResult(&result)
	}
}

// handleUpgrade switches the connection to the metrics stream. An
// optional ?model= query narrows the stream to one model.
func (s *Server) handleUpgrade(w http.ResponseWriter, req *http.Request) {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote", req.RemoteAddr, "error", err)
		return
	}

	c := newClient(conn, s.hub, req.URL.Query().Get("model"))
	s.hub.register <- c

	go c.writePump(s.ctx)
	go c.readPump(s.ctx)
}

// checkOrigin admits requests without an Origin header (CLI tools) and
// browser requests from the host the server is bound to.
func checkOrigin(req *http.Request) bool {
	origin := req.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return strings.Contains(origin, req.Host)
}
