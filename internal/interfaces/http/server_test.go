package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/odontoflow/odontoflow/gateway/internal/application/usecase"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/service"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/valueobject"
	"github.com/odontoflow/odontoflow/gateway/internal/infrastructure/persistence"
)

type canned struct{}

func (canned) Templates() service.ReplyTemplates {
	return service.ReplyTemplates{
		NameFallback: "cliente",
		Prefix: map[valueobject.PatientStatus]string{
			valueobject.StatusNewLead:         "Olá! ",
			valueobject.StatusExistingPatient: "Olá, {name}! ",
		},
		Replies: map[valueobject.IntentLabel]map[valueobject.PatientStatus]string{
			valueobject.IntentUnknown: {
				valueobject.StatusNewLead:         "Como posso ajudar?",
				valueobject.StatusExistingPatient: "Como posso ajudar?",
			},
		},
	}
}

func newTestServer() *Server {
	patients := persistence.NewMemoryPatientRepository()
	interactions := persistence.NewMemoryInteractionRepository()
	appointments := persistence.NewMemoryAppointmentRepository()

	triage := usecase.NewTriageUseCase(
		patients,
		interactions,
		service.NewKeywordClassifier(),
		service.NewTemplateReplyComposer(canned{}),
		nil,
		zap.NewNop(),
	)
	agenda := usecase.NewAgendaUseCase(
		service.NewAgenda(appointments, patients, service.ClinicHours{
			Location:    time.UTC,
			OpenHour:    9,
			CloseHour:   18,
			SlotMinutes: 60,
		}),
		nil,
		zap.NewNop(),
	)

	return NewServer(
		Config{Host: "127.0.0.1", Port: 0, Mode: "production", Service: "odontoflow-gateway", Version: "test"},
		Deps{
			Triage:       triage,
			Patients:     patients,
			Interactions: interactions,
			Agenda:       agenda,
		},
		zap.NewNop(),
	)
}

func TestServer_LivenessRoute(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "online" {
		t.Errorf("status field = %q, want online", body["status"])
	}
	if body["service"] != "odontoflow-gateway" {
		t.Errorf("service field = %q", body["service"])
	}
	if body["version"] == "" {
		t.Error("version field missing")
	}
}

func TestServer_RoutesWired(t *testing.T) {
	s := newTestServer()

	// Routes must exist even with optional deps absent
	for _, path := range []string{"/api/v1/patients", "/api/v1/agenda/slots", "/api/v1/stats"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		s.server.Handler.ServeHTTP(w, req)
		if w.Code == http.StatusNotFound {
			t.Errorf("route %s not registered", path)
		}
	}

	// Optional endpoints stay unregistered without their deps
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("metrics without monitor: status = %d, want 404", w.Code)
	}
}
