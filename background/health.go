// Package background contains services that run next to the HTTP server,
// independently of direct request-response cycles.
package background

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/user/academia-go/apperror"
)

const (
	// probeTimeout bounds a single reachability probe.
	probeTimeout = 5 * time.Second

	probeEvent = "probe"
)

// Probe is the outcome of one reachability check against the backend.
// Any HTTP answer, whatever its status, counts as reachable: the question is
// whether the backend is up, not whether the probed path exists.
type Probe struct {
	Backend   string        `json:"backend"`
	Reachable bool          `json:"reachable"`
	Status    int           `json:"status,omitempty"`
	Latency   time.Duration `json:"-"`
	LatencyMS int64         `json:"latencyMs"`
	Error     string        `json:"error,omitempty"`
	CheckedAt time.Time     `json:"checkedAt"`
}

// HealthMonitorOptions configures a HealthMonitor.
type HealthMonitorOptions struct {
	// Backend is the URL probed with GET, typically the backend origin.
	Backend string
	// Interval between probes. Zero disables the periodic loop; Check still works.
	Interval time.Duration
	Client   *http.Client
	Logger   *slog.Logger
	// Events, when set, receives a "probe" event after every check.
	Events *Broadcaster
}

// HealthMonitor periodically checks that the backend answers and keeps the latest result.
// Results are informational only; forwarding never consults them.
type HealthMonitor struct {
	backend  string
	interval time.Duration
	client   *http.Client
	logger   *slog.Logger
	events   *Broadcaster

	mu   sync.RWMutex
	last *Probe

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewHealthMonitor creates a monitor. It does nothing until Start is called.
func NewHealthMonitor(opts HealthMonitorOptions) *HealthMonitor {
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &HealthMonitor{
		backend:  opts.Backend,
		interval: opts.Interval,
		client:   opts.Client,
		logger:   opts.Logger.With(slog.String("component", "health")),
		events:   opts.Events,
		stopChan: make(chan struct{}),
	}
}

// Start launches the probe loop: one probe right away, then one per interval,
// until Stop is called.
func (m *HealthMonitor) Start() {
	if m.interval <= 0 {
		m.logger.Info("backend health monitor disabled")
		return
	}
	m.logger.Info("backend health monitor starting", slog.String("backend", m.backend), slog.Duration("interval", m.interval))

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.logger.Info("backend health monitor stopped")

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			select {
			case <-m.stopChan:
				cancel()
			case <-ctx.Done():
			}
		}()

		m.Check(ctx)
		for {
			select {
			case <-ticker.C:
				m.Check(ctx)
			case <-m.stopChan:
				return
			}
		}
	}()
}

// Stop ends the probe loop and waits for it. Safe to call more than once.
func (m *HealthMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
	m.wg.Wait()
}

// Check probes the backend once and records the result.
func (m *HealthMonitor) Check(ctx context.Context) Probe {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	probe := Probe{Backend: m.backend}
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.backend, nil)
	if err == nil {
		var resp *http.Response
		resp, err = m.client.Do(req)
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			probe.Reachable = true
			probe.Status = resp.StatusCode
		}
	}
	probe.Latency = time.Since(start)
	probe.LatencyMS = probe.Latency.Milliseconds()
	probe.CheckedAt = time.Now().UTC()

	if err != nil {
		probe.Error = err.Error()
	}
	m.record(probe)
	return probe
}

func (m *HealthMonitor) record(p Probe) {
	m.mu.Lock()
	prev := m.last
	m.last = &p
	m.mu.Unlock()

	switch {
	case !p.Reachable && (prev == nil || prev.Reachable):
		m.logger.Warn("backend unreachable", slog.String("backend", p.Backend), slog.String("error", p.Error))
	case p.Reachable && prev != nil && !prev.Reachable:
		m.logger.Info("backend reachable again", slog.String("backend", p.Backend), slog.Int("status", p.Status))
	default:
		m.logger.Debug("backend probed",
			slog.Bool("reachable", p.Reachable),
			slog.Int("status", p.Status),
			slog.Duration("latency", p.Latency),
		)
	}

	if m.events != nil {
		m.events.Publish(Event{Name: probeEvent, Data: p})
	}
}

// Snapshot returns the latest probe, and false when none has run yet.
func (m *HealthMonitor) Snapshot() (Probe, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return Probe{}, false
	}
	return *m.last, true
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Probe  *Probe `json:"probe,omitempty"`
}

// ServeHTTP answers GET /healthz with the latest probe: 200 while the backend
// is reachable (or has not been probed yet), 503 after a failed probe.
//
//	@Summary		Backend reachability
//	@Description	Latest result of the periodic backend probe.
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Failure		503	{object}	HealthResponse
//	@Router			/healthz [get]
func (m *HealthMonitor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "unknown"}
	status := http.StatusOK

	if p, ok := m.Snapshot(); ok {
		resp.Probe = &p
		if p.Reachable {
			resp.Status = "ok"
		} else {
			resp.Status = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		m.logger.Debug("writing health response failed", slog.Any("error", err))
	}
}

// ServeEvents streams every probe as a server-sent event, starting with the
// latest one if any.
//
//	@Summary		Backend reachability stream
//	@Description	Server-sent events, one "probe" event per backend check.
//	@Tags			health
//	@Produce		text/event-stream
//	@Success		200	{object}	Probe
//	@Failure		501	{object}	apperror.ErrorResponse
//	@Router			/healthz/events [get]
func (m *HealthMonitor) ServeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok || m.events == nil {
		apperror.Write(w, apperror.NewAppError(apperror.NotImplementedError, "Event stream not available", nil))
		return
	}

	id, events := m.events.Subscribe()
	defer m.events.Unsubscribe(id)

	// The stream outlives the server's write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		m.logger.Debug("cannot clear write deadline, stream ends at the server write timeout",
			slog.String("subscriber", id), slog.Any("error", err))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if p, ok := m.Snapshot(); ok {
		if _, err := (Event{Name: probeEvent, Data: p}).WriteTo(w); err != nil {
			return
		}
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, open := <-events:
			if !open {
				return
			}
			if _, err := e.WriteTo(w); err != nil {
				m.logger.Debug("event stream closed", slog.String("subscriber", id), slog.Any("error", err))
				return
			}
			flusher.Flush()
		}
	}
}

func (p Probe) String() string {
	if !p.Reachable {
		return fmt.Sprintf("%s unreachable: %s", p.Backend, p.Error)
	}
	return fmt.Sprintf("%s reachable (HTTP %d, %dms)", p.Backend, p.Status, p.LatencyMS)
}
