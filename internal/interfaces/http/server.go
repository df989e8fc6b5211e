// Package http serves journeys over HTTP. Handlers are a thin adapter over
// the journey service; routes are derived from the journey's step registry.
package http

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/possession-response/internal/application/port"
	"github.com/garyjia/possession-response/internal/application/service"
	"github.com/garyjia/possession-response/internal/infrastructure/metrics"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	session    SessionConfig
	httpServer *http.Server
	router     *gin.Engine
	signer     *sessionSigner

	journeys service.JourneyService
	cases    port.CaseDataProvider
	db       port.Pinger
	metrics  *metrics.Metrics
	logger   Logger
}

// NewServer creates a new HTTP server for a journey. db may be nil when no
// database backs the form data store.
func NewServer(
	config ServerConfig,
	session SessionConfig,
	journeys service.JourneyService,
	cases port.CaseDataProvider,
	db port.Pinger,
	m *metrics.Metrics,
	logger Logger,
) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	signer, err := newSessionSigner(session.Secret)
	if err != nil {
		return nil, err
	}
	if session.CookieName == "" {
		session.CookieName = DefaultSessionConfig().CookieName
	}

	renderer, err := newHTMLRenderer(viewNames(journeys)...)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.HTMLRender = renderer

	server := &Server{
		config:   config,
		session:  session,
		router:   router,
		signer:   signer,
		journeys: journeys,
		cases:    cases,
		db:       db,
		metrics:  m,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server, nil
}

// viewNames lists every template the journey and the error pages need
func viewNames(journeys service.JourneyService) []string {
	seen := map[string]bool{viewNotFound: true, viewError: true}
	views := []string{viewNotFound, viewError}
	for _, step := range journeys.Definition().Registry.GetAllSteps() {
		if !seen[step.View] {
			seen[step.View] = true
			views = append(views, step.View)
		}
	}
	return views
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// setupRoutes registers a GET and POST route per step, behind the session,
// case data and step validation middleware
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.HealthCheck)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	s.router.NoRoute(s.NotFound)

	session, caseData, validation := s.sessionMiddleware(), s.caseDataMiddleware(), s.stepValidationMiddleware()
	chain := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return []gin.HandlerFunc{session, caseData, validation, h}
	}

	steps := s.journeys.Definition().Registry.GetAllSteps()
	roots := make(map[string]bool)
	for _, step := range steps {
		s.router.GET(step.URL, chain(s.ShowStep)...)
		s.router.POST(step.URL, chain(s.SubmitStep)...)

		root := path.Dir(step.URL)
		if !roots[root] {
			roots[root] = true
			s.router.GET(root, chain(s.StartJourney)...)
			s.router.POST(root+"/"+startAgainPath, chain(s.StartAgain)...)
		}
	}
}

// Start starts the HTTP server and blocks until ctx is done or the listener fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
