package background

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// subscriberBuffer is how many events a slow subscriber may lag behind before
// new events are dropped for it.
const subscriberBuffer = 32

// Event is one server-sent event.
type Event struct {
	Name string
	Data any
}

// WriteTo encodes the event in text/event-stream framing.
func (e Event) WriteTo(w io.Writer) (int64, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return 0, fmt.Errorf("encode event %q: %w", e.Name, err)
	}
	n, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Name, data)
	return int64(n), err
}

// Broadcaster fans events out to every subscriber.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[string]chan Event
	logger *slog.Logger
}

// NewBroadcaster creates a Broadcaster with no subscribers.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subs:   make(map[string]chan Event),
		logger: logger,
	}
}

// Subscribe registers a new subscriber and returns its id and event channel.
// The channel is closed by Unsubscribe.
func (b *Broadcaster) Subscribe() (string, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch
	b.logger.Debug("subscriber added", slog.String("subscriber", id), slog.Int("subscribers", len(b.subs)))
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown ids are ignored.
func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		close(ch)
		delete(b.subs, id)
		b.logger.Debug("subscriber removed", slog.String("subscriber", id))
	}
}

// Publish sends the event to every subscriber without blocking; a subscriber
// whose buffer is full misses it.
func (b *Broadcaster) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.logger.Warn("subscriber lagging, event dropped", slog.String("subscriber", id), slog.String("event", e.Name))
		}
	}
}

// Subscribers returns how many subscribers are connected.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
