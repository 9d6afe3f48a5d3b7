package eventbus

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event is anything that can travel on the bus.
type Event interface {
	Type() string
	Timestamp() time.Time
	Payload() any
}

// BaseEvent is the default Event implementation.
type BaseEvent struct {
	EventType      string
	EventTimestamp time.Time
	EventPayload   any
}

func (e *BaseEvent) Type() string { return e.EventType }

func (e *BaseEvent) Timestamp() time.Time { return e.EventTimestamp }

func (e *BaseEvent) Payload() any { return e.EventPayload }

// NewEvent stamps a payload with the current time.
func NewEvent(eventType string, payload any) *BaseEvent {
	return &BaseEvent{
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   payload,
	}
}

// Handler processes a single event.
type Handler func(ctx context.Context, event Event)

// Bus decouples the triage pipeline from its observers (websocket feed,
// metrics, audit log). Publishing never blocks the caller.
type Bus interface {
	Publish(ctx context.Context, event Event)
	Subscribe(eventType string, handler Handler)
	Unsubscribe(eventType string, handler Handler)
	Close()
}

// InMemoryBus is a buffered in-process bus with a single dispatch goroutine.
type InMemoryBus struct {
	mu        sync.RWMutex
	handlers  map[string][]Handler
	eventChan chan eventWrapper
	closed    bool
	logger    *zap.Logger
	wg        sync.WaitGroup
}

type eventWrapper struct {
	ctx   context.Context
	event Event
}

func NewInMemoryBus(logger *zap.Logger, bufferSize int) *InMemoryBus {
	bus := &InMemoryBus{
		handlers:  make(map[string][]Handler),
		eventChan: make(chan eventWrapper, bufferSize),
		logger:    logger,
	}

	bus.wg.Add(1)
	go bus.dispatch()

	return bus
}

// Publish enqueues the event. When the buffer is full the event is dropped:
// observers are best-effort, the interaction log in the database is the
// durable record.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	b.mu.RUnlock()

	select {
	case b.eventChan <- eventWrapper{ctx: ctx, event: event}:
		b.logger.Debug("Event published",
			zap.String("type", event.Type()),
		)
	default:
		b.logger.Warn("Event buffer full, dropping event",
			zap.String("type", event.Type()),
		)
	}
}

func (b *InMemoryBus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make([]Handler, 0)
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	b.logger.Debug("Handler subscribed",
		zap.String("event_type", eventType),
	)
}

// Unsubscribe removes the most recently registered handler for the type.
// Go cannot compare function values, so last-registered-wins is the rule.
func (b *InMemoryBus) Unsubscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := b.handlers[eventType]
	if len(handlers) == 0 {
		return
	}

	newHandlers := make([]Handler, 0, len(handlers))
	removed := false
	for i := len(handlers) - 1; i >= 0; i-- {
		if !removed {
			removed = true
			continue
		}
		newHandlers = append([]Handler{handlers[i]}, newHandlers...)
	}
	if !removed {
		return
	}

	if len(newHandlers) == 0 {
		delete(b.handlers, eventType)
	} else {
		b.handlers[eventType] = newHandlers
	}
}

// Close stops the dispatch loop after draining queued events.
func (b *InMemoryBus) Close() {
	b.mu.Lock()
	b.closed = true
	close(b.eventChan)
	b.mu.Unlock()

	b.wg.Wait()
	b.logger.Info("Event bus closed")
}

func (b *InMemoryBus) dispatch() {
	defer b.wg.Done()

	for wrapper := range b.eventChan {
		b.dispatchEvent(wrapper.ctx, wrapper.event)
	}
}

// dispatchEvent runs the type's handlers plus the wildcard handlers in
// parallel. A panicking handler must not take down its siblings.
func (b *InMemoryBus) dispatchEvent(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0)

	if h, ok := b.handlers[event.Type()]; ok {
		handlers = append(handlers, h...)
	}

	if h, ok := b.handlers["*"]; ok {
		handlers = append(handlers, h...)
	}
	b.mu.RUnlock()

	var wg sync.WaitGroup
	for _, handler := range handlers {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("Handler panicked",
						zap.String("event_type", event.Type()),
						zap.Any("panic", r),
					)
				}
			}()
			h(ctx, event)
		}(handler)
	}
	wg.Wait()
}

// Event types emitted by the gateway.
const (
	EventTypeTriageCompleted      = "triage.completed"
	EventTypePatientCreated       = "patient.created"
	EventTypeAppointmentBooked    = "appointment.booked"
	EventTypeAppointmentCancelled = "appointment.cancelled"
	EventTypeError                = "error"
)

// TriageCompletedPayload describes one answered message. The payloads
// carry json tags because the websocket feed relays them verbatim.
type TriageCompletedPayload struct {
	InteractionID string        `json:"interaction_id"`
	PatientID     string        `json:"patient_id"`
	PatientName   string        `json:"patient_name,omitempty"`
	PatientStatus string        `json:"patient_status"`
	Channel       string        `json:"channel"`
	MessageText   string        `json:"message"`
	Intent        string        `json:"intent"`
	Confidence    float64       `json:"confidence"`
	ReplyText     string        `json:"reply"`
	NextAction    string        `json:"next_action"`
	Duration      time.Duration `json:"-"`
}

// PatientCreatedPayload is emitted on first contact.
type PatientCreatedPayload struct {
	PatientID string `json:"patient_id"`
	Name      string `json:"name,omitempty"`
	Channel   string `json:"channel"`
}

// AppointmentBookedPayload is emitted when a slot is taken.
type AppointmentBookedPayload struct {
	AppointmentID string    `json:"appointment_id"`
	PatientID     string    `json:"patient_id"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
}

// AppointmentCancelledPayload is emitted when a booking is released.
type AppointmentCancelledPayload struct {
	AppointmentID string `json:"appointment_id"`
	PatientID     string `json:"patient_id"`
}

// ErrorPayload reports a pipeline failure to observers.
type ErrorPayload struct {
	Component string `json:"component"`
	Error     string `json:"error"`
}
