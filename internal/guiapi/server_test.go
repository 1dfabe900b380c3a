package guiapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestHandleStatusReflectsUpdates(t *testing.T) {
	s := New(zap.NewNop(), true)
	s.UpdateState("LISTENING")
	s.UpdateComponent(ComponentStatus{Component: "stt", Status: "ok"})

	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var snap Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if snap.State != "LISTENING" {
		t.Fatalf("State = %q, want LISTENING", snap.State)
	}
	if len(snap.Components) != 1 || snap.Components[0].Component != "stt" {
		t.Fatalf("Components = %+v", snap.Components)
	}
}

func TestHealthzReturnsOK(t *testing.T) {
	s := New(zap.NewNop(), true)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
