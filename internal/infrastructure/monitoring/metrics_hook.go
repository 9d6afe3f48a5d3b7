package monitoring

import (
	"context"

	"github.com/odontoflow/odontoflow/gateway/internal/domain/valueobject"
	"github.com/odontoflow/odontoflow/gateway/internal/infrastructure/eventbus"
)

// MetricsHook feeds the Monitor from gateway events, so the counters stay
// accurate no matter which channel (HTTP, Telegram, console) produced the
// traffic. Purely observational: it never vetoes or mutates anything.
//
// Usage:
//
//	monitor := monitoring.NewMonitor(logger)
//	hook := monitoring.NewMetricsHook(monitor)
//	hook.Register(bus)
type MetricsHook struct {
	monitor *Monitor
}

// NewMetricsHook creates a metrics-collecting event subscriber.
func NewMetricsHook(monitor *Monitor) *MetricsHook {
	return &MetricsHook{monitor: monitor}
}

// Register attaches the hook to the bus. Call once during wiring.
func (h *MetricsHook) Register(bus eventbus.Bus) {
	bus.Subscribe(eventbus.EventTypeTriageCompleted, h.onTriageCompleted)
	bus.Subscribe(eventbus.EventTypePatientCreated, h.onPatientCreated)
	bus.Subscribe(eventbus.EventTypeAppointmentBooked, h.onAppointmentBooked)
	bus.Subscribe(eventbus.EventTypeAppointmentCancelled, h.onAppointmentCancelled)
	bus.Subscribe(eventbus.EventTypeError, h.onError)
}

func (h *MetricsHook) onTriageCompleted(ctx context.Context, event eventbus.Event) {
	payload, ok := event.Payload().(eventbus.TriageCompletedPayload)
	if !ok {
		return
	}

	h.monitor.IncTriageTotal()
	h.monitor.IncTriageSuccess()
	h.monitor.IncIntent(valueobject.IntentLabel(payload.Intent))
	if payload.Duration > 0 {
		h.monitor.RecordTriageLatency(payload.Duration)
	}
	if payload.Channel == "telegram" {
		h.monitor.IncTelegramMessage()
	}
}

func (h *MetricsHook) onPatientCreated(ctx context.Context, event eventbus.Event) {
	h.monitor.IncPatientCreated()
}

func (h *MetricsHook) onAppointmentBooked(ctx context.Context, event eventbus.Event) {
	h.monitor.IncAppointmentBooked()
}

func (h *MetricsHook) onAppointmentCancelled(ctx context.Context, event eventbus.Event) {
	h.monitor.IncAppointmentCancelled()
}

// onError counts a failed triage. Other components report errors on the
// same event type, so the component name is checked first.
func (h *MetricsHook) onError(ctx context.Context, event eventbus.Event) {
	payload, ok := event.Payload().(eventbus.ErrorPayload)
	if !ok || payload.Component != "triage" {
		return
	}
	h.monitor.IncTriageTotal()
	h.monitor.IncTriageFailed()
}
