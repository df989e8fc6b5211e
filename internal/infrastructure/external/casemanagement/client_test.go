package casemanagement

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/possession-response/internal/application/port"
	"github.com/garyjia/possession-response/pkg/retry"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Token:   "secret-token",
		Timeout: time.Second,
		Retry:   retry.Config{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond},
	}
}

func TestClient_GetCase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cases/1234", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"legislativeCountry":"Wales","defendant1":{"nameKnown":"YES"}}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), zap.NewNop())

	data, err := client.GetCase(context.Background(), "1234")
	require.NoError(t, err)
	assert.Equal(t, "Wales", data["legislativeCountry"])
}

func TestClient_GetCaseRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"legislativeCountry":"England"}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), zap.NewNop())

	data, err := client.GetCase(context.Background(), "1234")
	require.NoError(t, err)
	assert.Equal(t, "England", data["legislativeCountry"])
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_GetCaseNotFoundIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), zap.NewNop())

	_, err := client.GetCase(context.Background(), "missing")
	assert.ErrorIs(t, err, port.ErrCaseNotFound)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_GetCaseClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), zap.NewNop())

	_, err := client.GetCase(context.Background(), "1234")
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_GetCaseSharesConcurrentLookups(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		_, _ = w.Write([]byte(`{"legislativeCountry":"England"}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), zap.NewNop())

	var wg sync.WaitGroup
	results := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.GetCase(context.Background(), "1234")
			results <- err
		}()
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	for err := range results {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_GetCaseRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RateLimit = 0.1
	cfg.RateBurst = 1
	client := NewClient(cfg, zap.NewNop())

	_, err := client.GetCase(context.Background(), "1111")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.GetCase(ctx, "2222")
	assert.ErrorContains(t, err, "rate limited")
}

func TestFixtureProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"1111":{"legislativeCountry":"Wales"}}`), 0644))

	provider, err := LoadFixtureProvider(path)
	require.NoError(t, err)

	data, err := provider.GetCase(context.Background(), "1111")
	require.NoError(t, err)
	assert.Equal(t, "Wales", data["legislativeCountry"])

	_, err = provider.GetCase(context.Background(), "2222")
	assert.ErrorIs(t, err, port.ErrCaseNotFound)
}
