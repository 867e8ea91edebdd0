// Package server exposes the squares analysis engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/squares-ev/internal/health"
	"github.com/yourusername/squares-ev/internal/logger"
	"github.com/yourusername/squares-ev/internal/metrics"
	"github.com/yourusername/squares-ev/internal/server/ws"
	"github.com/yourusername/squares-ev/internal/service"
	"github.com/yourusername/squares-ev/internal/view"
)

// Config holds the dependencies of the API server.
type Config struct {
	Port           int
	AllowedOrigins []string
	MetricsEnabled bool
	MetricsPath    string
	Service        *service.AnalysisService
	Health         *health.Handler
	Logger         *logrus.Logger
}

// Server is the dashboard API server.
type Server struct {
	port           int
	allowedOrigins []string
	metricsEnabled bool
	metricsPath    string
	svc            *service.AnalysisService
	health         *health.Handler
	hub            *ws.Hub
	logger         *logrus.Logger
	validate       *validator.Validate
	httpServer     *http.Server
}

// New creates the API server and subscribes its websocket hub to live
// analysis updates.
func New(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	h := cfg.Health
	if h == nil {
		h = health.NewHandler(health.Config{ServiceName: "squares-ev", Logger: log})
	}
	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	s := &Server{
		port:           cfg.Port,
		allowedOrigins: cfg.AllowedOrigins,
		metricsEnabled: cfg.MetricsEnabled,
		metricsPath:    metricsPath,
		svc:            cfg.Service,
		health:         h,
		logger:         log,
		validate:       validator.New(),
	}
	s.hub = ws.NewHub(originAllowed(cfg.AllowedOrigins), s.snapshot, log)
	s.svc.Subscribe(func(a *service.Analysis) {
		s.hub.Broadcast(analysisMessage(a))
	})
	return s
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors(s.allowedOrigins))

	s.health.Register(r)
	if s.metricsEnabled {
		r.Handle(s.metricsPath, metrics.Handler())
	}
	r.Get("/ws", s.hub.HandleWS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Post("/boards/parse", s.parseBoard)
		r.Put("/boards/current", s.putCurrentBoard)
		r.Get("/boards/current", s.getCurrentBoard)
		r.Post("/analysis", s.analyze)
		r.Get("/analysis/current", s.currentAnalysis)
		r.Get("/odds/current", s.currentOdds)
		r.Post("/odds/refresh", s.refreshOdds)
	})
	return r
}

// Start listens in the background until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("port", s.port).Info("API server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully stops the server and disconnects websocket clients.
func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("API server shutting down")
	s.hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) snapshot() *ws.Message {
	a, err := s.svc.Current()
	if err != nil {
		return nil
	}
	msg := analysisMessage(a)
	return &msg
}

func analysisMessage(a *service.Analysis) ws.Message {
	return ws.Message{
		Type:    "analysis",
		ID:      a.ID,
		Payload: view.BuildDashboard(a.Board, a.Result, view.LeaderboardOptions{}, 10),
	}
}
