package triage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_Triage(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/triage" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")

		var req TriageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.SenderID != "5511999990000" || req.Message != "quero marcar uma consulta" {
			t.Errorf("request not forwarded verbatim: %+v", req)
		}

		json.NewEncoder(w).Encode(TriageReply{
			Intent:        "schedule_appointment",
			Confidence:    0.9,
			Reply:         "Claro! Qual o melhor dia para você?",
			PatientStatus: "new_lead",
			NextAction:    "awaiting_scheduling_details",
			IsNewPatient:  true,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithAPIKey("secret-token"))
	reply, err := client.Triage(context.Background(), TriageRequest{
		SenderID: "5511999990000",
		Message:  "quero marcar uma consulta",
	})
	if err != nil {
		t.Fatalf("Triage() error = %v", err)
	}

	if reply.Intent != "schedule_appointment" {
		t.Errorf("Intent = %q, want schedule_appointment", reply.Intent)
	}
	if !reply.IsNewPatient {
		t.Error("IsNewPatient = false, want true")
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want Bearer secret-token", gotAuth)
	}
}

func TestClient_Triage_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "sender_id and message are required"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Triage(context.Background(), TriageRequest{})
	if err == nil {
		t.Fatal("Triage() error = nil, want gateway error")
	}
	if !strings.Contains(err.Error(), "422") || !strings.Contains(err.Error(), "sender_id and message are required") {
		t.Errorf("error should carry status and gateway message, got %q", err)
	}
}

func TestClient_FreeSlots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/agenda/slots" {
			t.Errorf("path = %s, want /api/v1/agenda/slots", r.URL.Path)
		}
		if got := r.URL.Query().Get("date"); got != "2026-03-02" {
			t.Errorf("date = %q, want 2026-03-02", got)
		}
		w.Write([]byte(`{"date":"2026-03-02","slots":[
			{"start":"2026-03-02T09:00:00-03:00","end":"2026-03-02T09:30:00-03:00"},
			{"start":"2026-03-02T09:30:00-03:00","end":"2026-03-02T10:00:00-03:00"}
		]}`))
	}))
	defer srv.Close()

	slots, err := NewClient(srv.URL).FreeSlots(context.Background(), "2026-03-02")
	if err != nil {
		t.Fatalf("FreeSlots() error = %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("len(slots) = %d, want 2", len(slots))
	}
	if slots[0].End.Sub(slots[0].Start).Minutes() != 30 {
		t.Errorf("slot length = %v, want 30m", slots[0].End.Sub(slots[0].Start))
	}
}

func TestClient_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"status":"online","service":"odontoflow-gateway","version":"0.1.0"}`))
	}))

	client := NewClient(srv.URL)
	if !client.Health(context.Background()) {
		t.Error("Health() = false against a live gateway")
	}

	srv.Close()
	if client.Health(context.Background()) {
		t.Error("Health() = true against a closed gateway")
	}
}
