package http

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Options configures the HTTP server
type Options struct {
	Host           string
	Port           string
	Verbose        bool
	MetricsEnabled bool
	MetricsPath    string
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	logger zerolog.Logger
}

// NewRouter builds the routed handler with all middleware applied
func NewRouter(handler *Handler, opts Options, logger zerolog.Logger) http.Handler {
	r := mux.NewRouter()
	handler.Register(r)

	if opts.MetricsEnabled {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, promhttp.Handler()).Methods(http.MethodGet)
	}

	r.Use(MetricsMiddleware)
	r.Use(LoggingMiddleware(logger, opts.Verbose))

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{logger: logger}),
		handlers.PrintRecoveryStack(opts.Verbose),
	)

	return recovery(cors(r))
}

// NewServer creates a new HTTP server
func NewServer(handler *Handler, opts Options, logger zerolog.Logger) *Server {
	logger = logger.With().Str("component", "server").Logger()

	server := &http.Server{
		Addr:         net.JoinHostPort(opts.Host, opts.Port),
		Handler:      NewRouter(handler, opts, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		server: server,
		logger: logger,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("server starting")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("server shutting down")
	return s.server.Shutdown(ctx)
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.server.Addr
}
