package container

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/possession-response/internal/application/port"
	"github.com/garyjia/possession-response/internal/application/service"
	"github.com/garyjia/possession-response/internal/domain/journey"
	"github.com/garyjia/possession-response/internal/forms"
	"github.com/garyjia/possession-response/internal/infrastructure/external/casemanagement"
	"github.com/garyjia/possession-response/internal/infrastructure/metrics"
	"github.com/garyjia/possession-response/internal/infrastructure/persistence/memory"
	"github.com/garyjia/possession-response/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/possession-response/internal/infrastructure/worker"
	httpserver "github.com/garyjia/possession-response/internal/interfaces/http"
	"github.com/garyjia/possession-response/internal/journeys"
	"github.com/garyjia/possession-response/internal/journeys/respondtoclaim"
	"github.com/garyjia/possession-response/pkg/database"
	"github.com/garyjia/possession-response/pkg/retry"
)

// StoreBundle holds the form data store and, for sqlite, its database.
type StoreBundle struct {
	Store port.FormDataStore
	DB    *database.DB
}

// JourneyBundle holds a registered journey and its resolver.
type JourneyBundle struct {
	Definition *journeys.Definition
	Resolver   *journey.Resolver
}

// ProvideStore creates the form data store selected by the session config.
// The sqlite store runs pending migrations before it is returned.
func ProvideStore(ctx context.Context, session *SessionConfig, cfg *DatabaseConfig, logger *zap.Logger) (*StoreBundle, error) {
	if session == nil || cfg == nil {
		return nil, fmt.Errorf("store config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if session.Store == StoreMemory {
		logger.Warn("Using in-memory form data store; sessions are lost on restart")
		return &StoreBundle{Store: memory.NewFormDataStore()}, nil
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := sqlite.Migrate(ctx, db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	store := sqlite.NewFormDataStore(sqlite.NewDB(db.DB, logger), logger)
	return &StoreBundle{Store: store, DB: db}, nil
}

// ProvideCaseProvider creates the case data provider. A fixture file takes
// precedence over the API so the service can run without one.
func ProvideCaseProvider(cfg *CaseAPIConfig, logger *zap.Logger) (port.CaseDataProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("case API config is required")
	}

	if cfg.FixturePath != "" {
		provider, err := casemanagement.LoadFixtureProvider(cfg.FixturePath)
		if err != nil {
			return nil, err
		}
		logger.Info("Serving case data from fixture", zap.String("path", cfg.FixturePath))
		return provider, nil
	}

	retryCfg := retry.DefaultConfig()
	if cfg.MaxRetries > 0 {
		retryCfg.MaxAttempts = cfg.MaxRetries
	}
	if cfg.RetryInterval > 0 {
		retryCfg.InitialInterval = cfg.RetryInterval
	}

	return casemanagement.NewClient(casemanagement.Config{
		BaseURL:   cfg.BaseURL,
		Token:     cfg.Token,
		Timeout:   cfg.Timeout,
		Retry:     retryCfg,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	}, logger), nil
}

// ProvideJourney registers the respond-to-claim journey on a fresh registry
// and creates its resolver.
func ProvideJourney(cfg *JourneyConfig, logger *zap.Logger) (*JourneyBundle, error) {
	registry := journey.NewRegistry()

	def, err := respondtoclaim.Register(registry, time.Now)
	if err != nil {
		return nil, fmt.Errorf("failed to register journey: %w", err)
	}

	resolver := journey.NewResolver(registry,
		journey.WithConditionTimeout(cfg.ConditionTimeout),
		journey.WithLogger(&zapLoggerAdapter{logger: logger}),
	)

	logger.Info("Journey registered",
		zap.String("journey", def.Name),
		zap.Int("steps", registry.Len()))

	return &JourneyBundle{Definition: def, Resolver: resolver}, nil
}

// ProvideJourneyService creates the journey service over the store.
func ProvideJourneyService(bundle *JourneyBundle, store port.FormDataStore, logger *zap.Logger) service.JourneyService {
	return service.NewJourneyService(
		bundle.Definition,
		bundle.Resolver,
		store,
		forms.NewValidator(),
		&zapLoggerAdapter{logger: logger},
	)
}

// ProvideWorkers creates the worker manager with the session reaper registered.
func ProvideWorkers(cfg *SessionConfig, store port.FormDataStore, m *metrics.Metrics, logger *zap.Logger) *worker.WorkerManager {
	reaperCfg := worker.DefaultSessionReaperConfig()
	if cfg.TTL > 0 {
		reaperCfg.TTL = cfg.TTL
	}
	if cfg.ReapInterval > 0 {
		reaperCfg.Interval = cfg.ReapInterval
	}

	reaper := worker.NewSessionReaper(reaperCfg, store, logger)
	reaper.SetReapedCounter(m.SessionsReaped)

	manager := worker.NewWorkerManager(logger)
	manager.Register(reaper)
	return manager
}

// ProvideHTTPServer creates the HTTP server. db may be nil for the memory store.
func ProvideHTTPServer(
	cfg *Config,
	journeys service.JourneyService,
	cases port.CaseDataProvider,
	db port.Pinger,
	m *metrics.Metrics,
	logger *zap.Logger,
) (*httpserver.Server, error) {
	return httpserver.NewServer(
		httpserver.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		httpserver.SessionConfig{
			CookieName: cfg.Session.CookieName,
			TTL:        cfg.Session.TTL,
			Secure:     cfg.Session.Secure,
			Secret:     cfg.Session.Secret,
		},
		journeys,
		cases,
		db,
		m,
		&zapLoggerAdapter{logger: logger},
	)
}
