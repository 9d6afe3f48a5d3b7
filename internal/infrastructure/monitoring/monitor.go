package monitoring

import (
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/odontoflow/odontoflow/gateway/internal/domain/valueobject"
)

// Metrics holds the gateway counters. All fields are updated atomically.
type Metrics struct {
	// Triage pipeline
	TriageTotal   uint64
	TriageSuccess uint64
	TriageFailed  uint64

	// Classified intents
	IntentSchedule uint64
	IntentCancel   uint64
	IntentPrice    uint64
	IntentGreeting uint64
	IntentUnknown  uint64

	// Domain events
	PatientsCreated       uint64
	AppointmentsBooked    uint64
	AppointmentsCancelled uint64

	// Channels
	TelegramMessages uint64
	WSClients        int64

	// Latency (nanoseconds)
	TriageLatencySum   uint64
	TriageLatencyCount uint64

	StartTime time.Time
}

// Monitor collects gateway metrics.
type Monitor struct {
	metrics *Metrics
	logger  *zap.Logger
}

func NewMonitor(logger *zap.Logger) *Monitor {
	return &Monitor{
		metrics: &Metrics{
			StartTime: time.Now(),
		},
		logger: logger,
	}
}

func (m *Monitor) IncTriageTotal()          { atomic.AddUint64(&m.metrics.TriageTotal, 1) }
func (m *Monitor) IncTriageSuccess()        { atomic.AddUint64(&m.metrics.TriageSuccess, 1) }
func (m *Monitor) IncTriageFailed()         { atomic.AddUint64(&m.metrics.TriageFailed, 1) }
func (m *Monitor) IncPatientCreated()       { atomic.AddUint64(&m.metrics.PatientsCreated, 1) }
func (m *Monitor) IncAppointmentBooked()    { atomic.AddUint64(&m.metrics.AppointmentsBooked, 1) }
func (m *Monitor) IncAppointmentCancelled() { atomic.AddUint64(&m.metrics.AppointmentsCancelled, 1) }
func (m *Monitor) IncTelegramMessage()      { atomic.AddUint64(&m.metrics.TelegramMessages, 1) }

// IncIntent bumps the per-label counter.
func (m *Monitor) IncIntent(label valueobject.IntentLabel) {
	switch label {
	case valueobject.IntentScheduleAppointment:
		atomic.AddUint64(&m.metrics.IntentSchedule, 1)
	case valueobject.IntentCancelAppointment:
		atomic.AddUint64(&m.metrics.IntentCancel, 1)
	case valueobject.IntentRequestPrice:
		atomic.AddUint64(&m.metrics.IntentPrice, 1)
	case valueobject.IntentGreeting:
		atomic.AddUint64(&m.metrics.IntentGreeting, 1)
	default:
		atomic.AddUint64(&m.metrics.IntentUnknown, 1)
	}
}

func (m *Monitor) SetWSClients(n int64) {
	atomic.StoreInt64(&m.metrics.WSClients, n)
}

func (m *Monitor) RecordTriageLatency(d time.Duration) {
	atomic.AddUint64(&m.metrics.TriageLatencySum, uint64(d.Nanoseconds()))
	atomic.AddUint64(&m.metrics.TriageLatencyCount, 1)
}

// GetStats returns a point-in-time view for the stats endpoint and CLI.
func (m *Monitor) GetStats() map[string]interface{} {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	uptime := time.Since(m.metrics.StartTime)
	total := atomic.LoadUint64(&m.metrics.TriageTotal)

	avgLatency := float64(0)
	if count := atomic.LoadUint64(&m.metrics.TriageLatencyCount); count > 0 {
		avgLatency = float64(atomic.LoadUint64(&m.metrics.TriageLatencySum)) / float64(count) / 1e6 // ms
	}

	return map[string]interface{}{
		"uptime_seconds":         uptime.Seconds(),
		"triage_total":           total,
		"triage_success":         atomic.LoadUint64(&m.metrics.TriageSuccess),
		"triage_failed":          atomic.LoadUint64(&m.metrics.TriageFailed),
		"intent_schedule":        atomic.LoadUint64(&m.metrics.IntentSchedule),
		"intent_cancel":          atomic.LoadUint64(&m.metrics.IntentCancel),
		"intent_price":           atomic.LoadUint64(&m.metrics.IntentPrice),
		"intent_greeting":        atomic.LoadUint64(&m.metrics.IntentGreeting),
		"intent_unknown":         atomic.LoadUint64(&m.metrics.IntentUnknown),
		"patients_created":       atomic.LoadUint64(&m.metrics.PatientsCreated),
		"appointments_booked":    atomic.LoadUint64(&m.metrics.AppointmentsBooked),
		"appointments_cancelled": atomic.LoadUint64(&m.metrics.AppointmentsCancelled),
		"telegram_messages":      atomic.LoadUint64(&m.metrics.TelegramMessages),
		"ws_clients":             atomic.LoadInt64(&m.metrics.WSClients),
		"avg_latency_ms":         avgLatency,
		"memory_mb":              float64(memStats.Alloc) / 1024 / 1024,
		"goroutines":             runtime.NumGoroutine(),
		"rps":                    float64(total) / uptime.Seconds(),
	}
}
