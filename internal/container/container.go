package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/possession-response/internal/application/port"
	"github.com/garyjia/possession-response/internal/application/service"
	"github.com/garyjia/possession-response/internal/infrastructure/metrics"
	"github.com/garyjia/possession-response/internal/infrastructure/worker"
	httpserver "github.com/garyjia/possession-response/internal/interfaces/http"
	"github.com/garyjia/possession-response/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure
	db      *database.DB
	store   port.FormDataStore
	cases   port.CaseDataProvider
	metrics *metrics.Metrics

	// Application
	journey  *JourneyBundle
	journeys service.JourneyService

	// Interfaces
	server *httpserver.Server

	// Workers
	workers *worker.WorkerManager

	// Lifecycle
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components and begins background work.
// Components are initialized in dependency order:
// 1. Metrics
// 2. Form data store
// 3. Case data provider
// 4. Journey and journey service
// 5. HTTP server
// 6. Workers
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	c.metrics = metrics.New()

	if err := c.initStore(); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	c.logger.Info("Form data store initialized", zap.String("store", c.config.Session.Store))

	cases, err := ProvideCaseProvider(&c.config.CaseAPI, c.logger)
	if err != nil {
		c.closeStore()
		return fmt.Errorf("failed to initialize case provider: %w", err)
	}
	c.cases = cases

	bundle, err := ProvideJourney(&c.config.Journey, c.logger)
	if err != nil {
		c.closeStore()
		return fmt.Errorf("failed to initialize journey: %w", err)
	}
	c.journey = bundle
	c.journeys = ProvideJourneyService(bundle, c.store, c.logger)

	if err := c.initServer(); err != nil {
		c.closeStore()
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	c.workers = ProvideWorkers(&c.config.Session, c.store, c.metrics, c.logger)
	if err := c.workers.StartAll(c.ctx); err != nil {
		c.closeStore()
		return fmt.Errorf("failed to start workers: %w", err)
	}
	c.logger.Info("Workers started", zap.Int("count", c.workers.GetWorkerCount()))

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Cancel context to signal all goroutines
	if c.cancel != nil {
		c.cancel()
	}

	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			c.logger.Error("Failed to stop workers", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		} else {
			c.logger.Info("Workers stopped")
		}
	}

	if c.server != nil {
		if err := c.server.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop server: %w", err))
		}
	}

	if err := c.closeStore(); err != nil {
		c.logger.Error("Failed to close database", zap.Error(err))
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	switch {
	case c.store == nil:
		status.Components["store"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	case c.db != nil:
		if err := c.db.PingContext(ctx); err != nil {
			status.Components["store"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("ping failed: %v", err),
			}
			status.Overall = false
		} else {
			status.Components["store"] = ComponentHealth{Healthy: true}
		}
	default:
		status.Components["store"] = ComponentHealth{Healthy: true, Message: "in memory"}
	}

	if c.workers != nil {
		status.Components["workers"] = ComponentHealth{
			Healthy: c.workers.IsRunning(),
			Message: fmt.Sprintf("worker count: %d", c.workers.GetWorkerCount()),
		}
		if !c.workers.IsRunning() {
			status.Overall = false
		}
	} else {
		status.Components["workers"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	if c.journey != nil {
		status.Components["journey"] = ComponentHealth{
			Healthy: true,
			Message: fmt.Sprintf("%s: %d steps", c.journey.Definition.Name, c.journey.Definition.Registry.Len()),
		}
	} else {
		status.Components["journey"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	return status
}

// initStore initializes the form data store using providers.
func (c *Container) initStore() error {
	bundle, err := ProvideStore(c.ctx, &c.config.Session, &c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.store = bundle.Store
	c.db = bundle.DB
	return nil
}

// initServer creates the HTTP server. It is started separately by Server().Start.
func (c *Container) initServer() error {
	var db port.Pinger
	if c.db != nil {
		db = c.db
	}

	server, err := ProvideHTTPServer(c.config, c.journeys, c.cases, db, c.metrics, c.logger)
	if err != nil {
		return err
	}
	c.server = server
	return nil
}

// closeStore closes the database behind the store, if any
func (c *Container) closeStore() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// Getters

// Server returns the HTTP server.
func (c *Container) Server() *httpserver.Server {
	return c.server
}

// JourneyService returns the journey service.
func (c *Container) JourneyService() service.JourneyService {
	return c.journeys
}

// Store returns the form data store.
func (c *Container) Store() port.FormDataStore {
	return c.store
}

// Metrics returns the metrics registry.
func (c *Container) Metrics() *metrics.Metrics {
	return c.metrics
}

// Workers returns the worker manager.
func (c *Container) Workers() *worker.WorkerManager {
	return c.workers
}

// zapLoggerAdapter adapts zap.Logger to the key-value Logger interfaces
// used by the journey, service and HTTP packages.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Warn(msg string, keysAndValues ...interface{}) {
	a.logger.Warn(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, isErr := keysAndValues[i+1].(error); isErr {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
