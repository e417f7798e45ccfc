package httpserver

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSON_EncodeFailureIs500(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/v1/dashboard", nil)

	writeJSON(rec, r, http.StatusOK, map[string]float64{"avg": math.Inf(1)})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content type %q", ct)
	}
	if rec.Header().Get("ETag") != "" {
		t.Fatalf("no ETag expected on a failed encode")
	}
	var p problem
	if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if p.Status != http.StatusInternalServerError {
		t.Fatalf("unexpected problem: %+v", p)
	}
}

func TestWriteJSON_OK(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusCreated, map[string]int{"n": 1})
	if rec.Code != http.StatusCreated || rec.Body.String() != `{"n":1}` {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}
