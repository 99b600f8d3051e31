package api

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gorilla/mux"
	"github.com/nijaru/vi-transcript/config"
	"github.com/nijaru/vi-transcript/middleware"
	"github.com/nijaru/vi-transcript/services/summary"
	"github.com/nijaru/vi-transcript/services/video"
	"github.com/nijaru/vi-transcript/utils"
	"github.com/sirupsen/logrus"
)

type Server struct {
	videoSvc   video.Service
	summarySvc summary.Service
	config     *config.Config
	logger     *logrus.Logger
	server     *http.Server
	startTime  time.Time
}

type ServerOption func(*Server)

func NewServer(cfg *config.Config, opts ...ServerOption) *Server {
	s := &Server{
		config:    cfg,
		logger:    logrus.StandardLogger(),
		startTime: time.Now(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

func WithServices(videoSvc video.Service, summarySvc summary.Service) ServerOption {
	return func(s *Server) {
		s.videoSvc = videoSvc
		s.summarySvc = summarySvc
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// Handler exposes the routed middleware stack, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start() error {
	s.logger.WithField("port", s.config.ServerPort).Info("Starting server")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	// No Methods matchers here: handlers answer 405 through their validator.
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.APIKey(s.config.APIKey))

	if s.videoSvc != nil {
		videoHandler := NewVideoHandler(s.videoSvc, s.logger)
		api.HandleFunc("/get-transcript", videoHandler.HandleGetTranscript)
		api.HandleFunc("/send-video", videoHandler.HandleSendVideo)
		api.HandleFunc("/fetch-transcript", videoHandler.HandleFetchTranscript)
	}

	if s.summarySvc != nil {
		summaryHandler := NewSummaryHandler(s.summarySvc, s.logger)
		api.HandleFunc("/Get-Summary", summaryHandler.HandleGetSummary)
	}

	return s.middleware(router)
}

func (s *Server) middleware(handler http.Handler) http.Handler {
	middlewares := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		middleware.RequestID(),
		middleware.Logging(s.logger),
		middleware.CORS(s.config.CORS),
		middleware.Timeout(s.config.RequestTimeout),
	}

	if s.config.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(
			s.config.RateLimit.RequestsPerMinute,
			s.config.RateLimit.BurstSize,
		)
		middlewares = append(middlewares, limiter.Middleware)
	}

	return middleware.Chain(handler, middlewares...)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"version":   s.config.Version,
		"uptime":    time.Since(s.startTime).String(),
	}

	if s.config.Debug {
		status["debug"] = true
		status["goroutines"] = runtime.NumGoroutine()
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		status["memory"] = map[string]interface{}{
			"allocated": m.Alloc,
			"total":     m.TotalAlloc,
			"system":    m.Sys,
			"gc_cycles": m.NumGC,
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, status)
}
