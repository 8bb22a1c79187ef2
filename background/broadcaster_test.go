package background

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_PublishSubscribe(t *testing.T) {
	b := NewBroadcaster(quietLogger())

	id1, ch1 := b.Subscribe()
	_, ch2 := b.Subscribe()
	assert.Equal(t, 2, b.Subscribers())

	b.Publish(Event{Name: "probe", Data: "x"})
	assert.Equal(t, Event{Name: "probe", Data: "x"}, <-ch1)
	assert.Equal(t, Event{Name: "probe", Data: "x"}, <-ch2)

	b.Unsubscribe(id1)
	b.Unsubscribe(id1)
	_, open := <-ch1
	assert.False(t, open, "channel closed on unsubscribe")
	assert.Equal(t, 1, b.Subscribers())
}

func TestBroadcaster_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroadcaster(quietLogger())
	_, ch := b.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer+10; i++ {
			b.Publish(Event{Name: "probe", Data: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestEvent_WriteTo(t *testing.T) {
	var sb strings.Builder
	_, err := Event{Name: "probe", Data: map[string]bool{"reachable": true}}.WriteTo(&sb)
	require.NoError(t, err)
	assert.Equal(t, "event: probe\ndata: {\"reachable\":true}\n\n", sb.String())
}

func TestHealthMonitor_ServeEvents(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer backend.Close()

	events := NewBroadcaster(quietLogger())
	m := NewHealthMonitor(HealthMonitorOptions{Backend: backend.URL, Logger: quietLogger(), Events: events})
	m.Check(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(m.ServeEvents))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	readProbe := func() Probe {
		var p Probe
		for lines.Scan() {
			if data, ok := strings.CutPrefix(lines.Text(), "data: "); ok {
				require.NoError(t, json.Unmarshal([]byte(data), &p))
				return p
			}
		}
		t.Fatal("stream ended early")
		return p
	}

	first := readProbe()
	assert.True(t, first.Reachable, "latest probe is sent on connect")

	require.Eventually(t, func() bool { return events.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	backend.Close()
	m.Check(context.Background())

	second := readProbe()
	assert.False(t, second.Reachable)
	assert.NotEmpty(t, second.Error)
}

func TestHealthMonitor_ServeEventsWithoutBroadcaster(t *testing.T) {
	m := NewHealthMonitor(HealthMonitorOptions{Backend: "http://127.0.0.1:1", Logger: quietLogger()})

	rec := httptest.NewRecorder()
	m.ServeEvents(rec, httptest.NewRequest(http.MethodGet, "/healthz/events", nil))

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Contains(t, rec.Body.String(), "Event stream not available")
}

func TestHealthMonitor_ServeEventsLogsUnclearableDeadline(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m := NewHealthMonitor(HealthMonitorOptions{Backend: "http://127.0.0.1:1", Logger: logger, Events: NewBroadcaster(logger)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := httptest.NewRecorder()
	m.ServeEvents(rec, httptest.NewRequest(http.MethodGet, "/healthz/events", nil).WithContext(ctx))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, logs.String(), "cannot clear write deadline")
}
