package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/possession-response/internal/domain/journey"
	"github.com/garyjia/possession-response/internal/infrastructure/persistence/memory"
)

type failingStore struct {
	*memory.FormDataStore
}

func (failingStore) DeleteInactive(context.Context, time.Time) (int64, error) {
	return 0, errors.New("database locked")
}

func TestSessionReaper_Sweep(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	store := memory.NewFormDataStore()
	store.SetClock(func() time.Time { return base })
	require.NoError(t, store.Set(ctx, "old", "j", "start", journey.FormData{"continue": "true"}))
	store.SetClock(func() time.Time { return base.Add(23 * time.Hour) })
	require.NoError(t, store.Set(ctx, "recent", "j", "start", journey.FormData{"continue": "true"}))

	reaped := prometheus.NewCounter(prometheus.CounterOpts{Name: "reaped_total"})
	reaper := NewSessionReaper(SessionReaperConfig{Interval: time.Hour, TTL: 24 * time.Hour}, store, zap.NewNop())
	reaper.SetReapedCounter(reaped)
	reaper.now = func() time.Time { return base.Add(25 * time.Hour) }

	reaper.Sweep(ctx)

	assert.NoError(t, reaper.LastError())
	assert.Equal(t, int64(1), reaper.DeletedCount())
	assert.Equal(t, 1.0, testutil.ToFloat64(reaped))
	assert.Equal(t, base.Add(25*time.Hour), reaper.LastRun())

	old, err := store.GetAll(ctx, "old", "j")
	require.NoError(t, err)
	assert.Empty(t, old)

	recent, err := store.GetAll(ctx, "recent", "j")
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestSessionReaper_SweepRecordsError(t *testing.T) {
	reaper := NewSessionReaper(SessionReaperConfig{}, failingStore{memory.NewFormDataStore()}, zap.NewNop())

	reaper.Sweep(context.Background())

	assert.Error(t, reaper.LastError())
	assert.Equal(t, int64(0), reaper.DeletedCount())
}

func TestSessionReaper_Lifecycle(t *testing.T) {
	store := memory.NewFormDataStore()
	reaper := NewSessionReaper(SessionReaperConfig{Interval: time.Millisecond, TTL: time.Hour}, store, zap.NewNop())

	require.NoError(t, reaper.Start(context.Background()))
	assert.Error(t, reaper.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return !reaper.LastRun().IsZero()
	}, time.Second, time.Millisecond)

	require.NoError(t, reaper.Stop())
	require.NoError(t, reaper.Stop())
}

func TestWorkerManager_StartStop(t *testing.T) {
	manager := NewWorkerManager(zap.NewNop())
	reaper := NewSessionReaper(SessionReaperConfig{Interval: time.Hour}, memory.NewFormDataStore(), zap.NewNop())
	manager.Register(reaper)

	assert.Equal(t, 1, manager.GetWorkerCount())

	require.NoError(t, manager.StartAll(context.Background()))
	assert.True(t, manager.IsRunning())
	assert.Error(t, manager.StartAll(context.Background()))

	require.NoError(t, manager.StopAll())
	assert.False(t, manager.IsRunning())
	require.NoError(t, manager.StopAll())
}
