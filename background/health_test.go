package background

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHealthMonitor_Check(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer backend.Close()

	m := NewHealthMonitor(HealthMonitorOptions{Backend: backend.URL, Logger: quietLogger()})

	_, ok := m.Snapshot()
	assert.False(t, ok)

	probe := m.Check(context.Background())
	assert.True(t, probe.Reachable, "any HTTP answer means the backend is up")
	assert.Equal(t, http.StatusNotFound, probe.Status)
	assert.Empty(t, probe.Error)
	assert.False(t, probe.CheckedAt.IsZero())

	snap, ok := m.Snapshot()
	require.True(t, ok)
	assert.Equal(t, probe, snap)
}

func TestHealthMonitor_Unreachable(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	url := backend.URL
	backend.Close()

	m := NewHealthMonitor(HealthMonitorOptions{Backend: url, Logger: quietLogger()})
	probe := m.Check(context.Background())

	assert.False(t, probe.Reachable)
	assert.Zero(t, probe.Status)
	assert.NotEmpty(t, probe.Error)
	assert.Contains(t, probe.String(), "unreachable")
}

func TestHealthMonitor_ServeHTTP(t *testing.T) {
	var up atomic.Bool
	up.Store(true)
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !up.Load() {
			panic(http.ErrAbortHandler)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	m := NewHealthMonitor(HealthMonitorOptions{Backend: backend.URL, Logger: quietLogger()})

	get := func() (int, HealthResponse) {
		rec := httptest.NewRecorder()
		m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		var body HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		return rec.Code, body
	}

	code, body := get()
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "unknown", body.Status)
	assert.Nil(t, body.Probe)

	m.Check(context.Background())
	code, body = get()
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
	require.NotNil(t, body.Probe)
	assert.Equal(t, backend.URL, body.Probe.Backend)

	up.Store(false)
	m.Check(context.Background())
	code, body = get()
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unreachable", body.Status)
	assert.NotEmpty(t, body.Probe.Error)
}

func TestHealthMonitor_StartStop(t *testing.T) {
	var hits atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer backend.Close()

	m := NewHealthMonitor(HealthMonitorOptions{Backend: backend.URL, Interval: 10 * time.Millisecond, Logger: quietLogger()})
	m.Start()

	assert.Eventually(t, func() bool { return hits.Load() >= 2 }, time.Second, 5*time.Millisecond)

	m.Stop()
	m.Stop()
	after := hits.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, hits.Load(), "no probes after Stop")
}

func TestHealthMonitor_Disabled(t *testing.T) {
	var hits atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer backend.Close()

	m := NewHealthMonitor(HealthMonitorOptions{Backend: backend.URL, Logger: quietLogger()})
	m.Start()
	time.Sleep(20 * time.Millisecond)
	m.Stop()

	assert.Zero(t, hits.Load())
	_, ok := m.Snapshot()
	assert.False(t, ok)
}
