package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/portfolio-site/backend/auth"
	"github.com/portfolio-site/backend/blog"
	"github.com/portfolio-site/backend/config"
)

var defaultOrigins = []string{"http://localhost:5173"}

type Server struct {
	*http.Server
	startupTime time.Time
}

// Dependencies are the collaborators the router needs.
type Dependencies struct {
	Service  *blog.Service
	Verifier *auth.Verifier
	// Uploads is served under /uploads/ when set (local asset store only).
	Uploads UploadSource
	Ping    func(context.Context) error
}

func NewServer(cfg config.App, deps Dependencies) (Server, error) {
	if deps.Service == nil {
		return Server{}, errors.New("blog service is required")
	}

	address := fmt.Sprintf("0.0.0.0:%s", cfg.Port) // Bind to 0.0.0.0 for external access

	// Capture startup time
	startupTime := time.Now()

	router := newRouter(deps,
		withStartupTime(startupTime),
		withAcceptedOrigins(cfg.AcceptedOrigins),
		withMaxImageBytes(cfg.Assets.MaxImageBytes),
		withConsoleLogging(cfg.LogFormat == "console"),
	)

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,  // Timeout for reading the entire request
		WriteTimeout: cfg.WriteTimeout, // Timeout for writing the response
		IdleTimeout:  cfg.IdleTimeout,  // Timeout for idle connections
	}

	return Server{server, startupTime}, nil
}

type router struct {
	startupTime     time.Time
	acceptedOrigins []string
	maxImageBytes   int64
	consoleLogging  bool
}

func withStartupTime(startupTime time.Time) func(*router) {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

func withAcceptedOrigins(origins []string) func(*router) {
	return func(r *router) {
		if len(origins) > 0 {
			r.acceptedOrigins = origins
		}
	}
}

func withMaxImageBytes(n int64) func(*router) {
	return func(r *router) {
		if n > 0 {
			r.maxImageBytes = n
		}
	}
}

func withConsoleLogging(enabled bool) func(*router) {
	return func(r *router) {
		r.consoleLogging = enabled
	}
}

func newRouter(deps Dependencies, opts ...func(*router)) *chi.Mux {
	router := router{
		startupTime:     time.Now(),
		acceptedOrigins: defaultOrigins,
		maxImageBytes:   10 << 20,
	}
	for _, opt := range opts {
		opt(&router)
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(LogInternalServerErrors)
	chiRouter.Use(corsMiddleware(router.acceptedOrigins))

	handlers := initializeHandlers(deps.Service, router.maxImageBytes, router.startupTime, deps.Ping, deps.Uploads)
	authMiddleware := newAuthMiddleware(deps.Verifier)

	requestLogger := HTTPLoggingMiddleware(log.With().Str("handlerName", "http").Logger())
	if router.consoleLogging {
		requestLogger = ColoredHTTPLoggingMiddleware
	}

	setupFrontendRoutes(chiRouter, handlers, authMiddleware, requestLogger)
	setupUploadRoutes(chiRouter, handlers)

	return chiRouter
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

// Run serves until ctx is done, then shuts down within timeout.
func (s Server) Run(ctx context.Context, timeout time.Duration) error {
	errChannel := make(chan error, 1)
	go s.Start(errChannel)

	select {
	case err := <-errChannel:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.ShutdownGracefully(timeout)
		return nil
	}
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}
