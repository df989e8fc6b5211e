package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/garyjia/possession-response/internal/application/port"
)

// SessionReaperConfig holds configuration for the session reaper
type SessionReaperConfig struct {
	Interval time.Duration
	TTL      time.Duration
}

// DefaultSessionReaperConfig returns default configuration
func DefaultSessionReaperConfig() SessionReaperConfig {
	return SessionReaperConfig{
		Interval: 10 * time.Minute,
		TTL:      24 * time.Hour,
	}
}

// SessionReaper periodically deletes form data of sessions idle for longer than the TTL
type SessionReaper struct {
	config SessionReaperConfig
	store  port.FormDataStore
	logger *zap.Logger
	now    func() time.Time
	reaped prometheus.Counter

	mu           sync.RWMutex
	cancel       context.CancelFunc
	done         chan struct{}
	isRunning    bool
	lastRun      time.Time
	deletedCount int64
	lastError    error
}

// NewSessionReaper creates a new session reaper
func NewSessionReaper(config SessionReaperConfig, store port.FormDataStore, logger *zap.Logger) *SessionReaper {
	defaults := DefaultSessionReaperConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.TTL <= 0 {
		config.TTL = defaults.TTL
	}
	return &SessionReaper{
		config: config,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// SetReapedCounter records deleted sessions on the given counter
func (r *SessionReaper) SetReapedCounter(c prometheus.Counter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reaped = c
}

// Start begins the reaping loop
func (r *SessionReaper) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return fmt.Errorf("session reaper already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.isRunning = true
	r.mu.Unlock()

	r.logger.Info("SessionReaper started",
		zap.Duration("interval", r.config.Interval),
		zap.Duration("ttl", r.config.TTL))

	go r.loop(runCtx, r.done)
	return nil
}

// Stop terminates the loop and waits for an in-flight sweep to finish
func (r *SessionReaper) Stop() error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = false
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()
	<-done

	r.logger.Info("SessionReaper stopped", zap.Int64("deleted_count", r.DeletedCount()))
	return nil
}

// Name returns the worker name for identification
func (r *SessionReaper) Name() string {
	return "SessionReaper"
}

// DeletedCount returns the number of sessions removed since start
func (r *SessionReaper) DeletedCount() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.deletedCount
}

// LastRun returns when the most recent sweep finished
func (r *SessionReaper) LastRun() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastRun
}

// LastError returns the error of the most recent sweep, if any
func (r *SessionReaper) LastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastError
}

func (r *SessionReaper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep deletes expired sessions once
func (r *SessionReaper) Sweep(ctx context.Context) {
	cutoff := r.now().Add(-r.config.TTL)
	deleted, err := r.store.DeleteInactive(ctx, cutoff)

	r.mu.Lock()
	r.lastRun = r.now()
	r.lastError = err
	if err == nil {
		r.deletedCount += deleted
	}
	reaped := r.reaped
	r.mu.Unlock()

	if err != nil {
		r.logger.Error("Failed to delete expired sessions", zap.Error(err))
		return
	}
	if deleted > 0 {
		if reaped != nil {
			reaped.Add(float64(deleted))
		}
		r.logger.Info("Expired sessions deleted",
			zap.Int64("count", deleted),
			zap.Time("cutoff", cutoff))
	}
}
