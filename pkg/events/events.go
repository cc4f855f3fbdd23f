package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oakhill-health/checkup-backend/pkg/enums"
	"github.com/oakhill-health/checkup-backend/pkg/logger"
)

// ActorRef identifies who produced the event. The id is the opaque actor id
// supplied by the edge; the engine never interprets it.
type ActorRef struct {
	ActorID string `json:"actorId"`
	Role    string `json:"role,omitempty"`
}

// Envelope is the stable payload handed to subscribers. The notification edge
// consumes these as push-notification trigger points; delivery mechanics stay
// outside the engine.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	Type       enums.EventType `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// Event is the engine-side description of a transition event before wrapping.
type Event struct {
	Type       enums.EventType
	Actor      *ActorRef
	Data       any
	OccurredAt time.Time
}

// Publisher is the surface engine services emit through.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Handler receives envelopes synchronously, in subscription order.
type Handler func(ctx context.Context, env Envelope)

// Dispatcher fans envelopes out to in-process subscribers.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []Handler
	logg     *logger.Logger
}

// NewDispatcher wires an empty dispatcher.
func NewDispatcher(logg *logger.Logger) *Dispatcher {
	return &Dispatcher{logg: logg}
}

// Subscribe registers a handler for all subsequent events.
func (d *Dispatcher) Subscribe(h Handler) {
	if h == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// Emit wraps the event in an envelope and delivers it to every subscriber.
func (d *Dispatcher) Emit(ctx context.Context, event Event) error {
	if ctx == nil {
		ctx = context.Background()
	}
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return err
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	env := Envelope{
		Version:    1,
		EventID:    uuid.NewString(),
		Type:       event.Type,
		OccurredAt: event.OccurredAt,
		Actor:      event.Actor,
		Data:       payload,
	}

	if d.logg != nil {
		fields := map[string]any{
			"event_id":   env.EventID,
			"event_type": env.Type,
		}
		logCtx := d.logg.WithFields(ctx, fields)
		d.logg.Info(logCtx, "engine event emitted")
	}

	d.mu.RLock()
	handlers := make([]Handler, len(d.handlers))
	copy(handlers, d.handlers)
	d.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, env)
	}
	return nil
}
