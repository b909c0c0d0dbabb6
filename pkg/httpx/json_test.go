package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteMessage(rr, http.StatusInternalServerError, "Reboot failed: denied")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type %q", ct)
	}
	var p MessagePayload
	if err := json.Unmarshal(rr.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.Message != "Reboot failed: denied" {
		t.Fatalf("message %q", p.Message)
	}
}

func TestWriteRetryAfter(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteRetryAfter(rr, "slow down", 42)
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") != "42" {
		t.Fatalf("got %d %q", rr.Code, rr.Header().Get("Retry-After"))
	}
}
