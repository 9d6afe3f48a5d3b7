package monitoring

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// PrometheusHandler returns an http.Handler that serves Prometheus text format metrics.
// This avoids pulling in the full prometheus/client_golang dependency.
// Mount it at "/metrics" in your HTTP server.
func (m *Monitor) PrometheusHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(m.metrics.StartTime).Seconds()

		// Write metrics in Prometheus exposition format
		lines := []struct {
			name string
			help string
			typ  string
			val  interface{}
		}{
			// Triage counters
			{"odontoflow_triage_requests_total", "Total number of triage requests processed", "counter", atomic.LoadUint64(&m.metrics.TriageTotal)},
			{"odontoflow_triage_success_total", "Total triage requests answered with a reply", "counter", atomic.LoadUint64(&m.metrics.TriageSuccess)},
			{"odontoflow_triage_failed_total", "Total triage requests that ended in an error", "counter", atomic.LoadUint64(&m.metrics.TriageFailed)},

			// Domain counters
			{"odontoflow_patients_created_total", "Total patients created on first contact", "counter", atomic.LoadUint64(&m.metrics.PatientsCreated)},
			{"odontoflow_appointments_booked_total", "Total appointments booked", "counter", atomic.LoadUint64(&m.metrics.AppointmentsBooked)},
			{"odontoflow_appointments_cancelled_total", "Total appointments cancelled", "counter", atomic.LoadUint64(&m.metrics.AppointmentsCancelled)},

			// Channel counters
			{"odontoflow_telegram_messages_total", "Total messages handled by the Telegram connector", "counter", atomic.LoadUint64(&m.metrics.TelegramMessages)},

			// Gauges
			{"odontoflow_websocket_clients", "Number of connected websocket feed clients", "gauge", atomic.LoadInt64(&m.metrics.WSClients)},
			{"odontoflow_uptime_seconds", "Process uptime in seconds", "gauge", uptime},

			// Runtime metrics
			{"odontoflow_memory_alloc_bytes", "Current memory allocation in bytes", "gauge", memStats.Alloc},
			{"odontoflow_memory_sys_bytes", "Total memory obtained from OS", "gauge", memStats.Sys},
			{"odontoflow_goroutines", "Number of goroutines", "gauge", runtime.NumGoroutine()},
			{"odontoflow_gc_pause_total_ns", "Total GC pause time in nanoseconds", "counter", memStats.PauseTotalNs},
			{"odontoflow_gc_cycles_total", "Total number of completed GC cycles", "counter", memStats.NumGC},
		}

		for _, l := range lines {
			fmt.Fprintf(w, "# HELP %s %s\n", l.name, l.help)
			fmt.Fprintf(w, "# TYPE %s %s\n", l.name, l.typ)
			switch v := l.val.(type) {
			case uint64:
				fmt.Fprintf(w, "%s %d\n", l.name, v)
			case int64:
				fmt.Fprintf(w, "%s %d\n", l.name, v)
			case int:
				fmt.Fprintf(w, "%s %d\n", l.name, v)
			case float64:
				fmt.Fprintf(w, "%s %f\n", l.name, v)
			case uint32:
				fmt.Fprintf(w, "%s %d\n", l.name, v)
			}
			fmt.Fprintln(w)
		}

		// Intent counters share one metric name with an intent label.
		intents := []struct {
			label string
			val   uint64
		}{
			{"schedule_appointment", atomic.LoadUint64(&m.metrics.IntentSchedule)},
			{"cancel_appointment", atomic.LoadUint64(&m.metrics.IntentCancel)},
			{"request_price", atomic.LoadUint64(&m.metrics.IntentPrice)},
			{"greeting", atomic.LoadUint64(&m.metrics.IntentGreeting)},
			{"unknown", atomic.LoadUint64(&m.metrics.IntentUnknown)},
		}
		fmt.Fprintf(w, "# HELP odontoflow_intents_total Classified intents by label\n")
		fmt.Fprintf(w, "# TYPE odontoflow_intents_total counter\n")
		for _, i := range intents {
			fmt.Fprintf(w, "odontoflow_intents_total{intent=%q} %d\n", i.label, i.val)
		}
		fmt.Fprintln(w)

		// Latency summary
		triageCount := atomic.LoadUint64(&m.metrics.TriageLatencyCount)
		if triageCount > 0 {
			avgMs := float64(atomic.LoadUint64(&m.metrics.TriageLatencySum)) / float64(triageCount) / 1e6
			fmt.Fprintf(w, "# HELP odontoflow_triage_latency_avg_ms Average triage latency in milliseconds\n")
			fmt.Fprintf(w, "# TYPE odontoflow_triage_latency_avg_ms gauge\n")
			fmt.Fprintf(w, "odontoflow_triage_latency_avg_ms %f\n\n", avgMs)
		}
	})
}
