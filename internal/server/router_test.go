package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/scanpipe/scanpipe/internal/pipeline"
	"github.com/scanpipe/scanpipe/internal/record"
	"github.com/scanpipe/scanpipe/internal/store"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(newTestController(t), "/api").Handler()
}

func newTestController(t *testing.T) *pipeline.Controller {
	t.Helper()
	rs := store.NewRecordStore(store.NewMemory(), nil)
	if _, err := rs.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	ctrl, err := pipeline.New(pipeline.Config{Store: rs, Cooldown: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return ctrl
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestScanAcceptedAndStored(t *testing.T) {
	h := newTestHandler(t)
	w := doJSON(t, h, "POST", "/api/scan", `{"payload":"ABC123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Accepted bool              `json:"accepted"`
		Record   record.ScanRecord `json:"record"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Accepted || resp.Record.Payload != "ABC123" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	// Second scan inside the busy window is dropped, not an error.
	w = doJSON(t, h, "POST", "/api/scan", `{"payload":"ABC123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for busy drop, got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Accepted {
		t.Fatalf("expected busy drop")
	}
}

func TestScanRejectsBadJSON(t *testing.T) {
	h := newTestHandler(t)
	w := doJSON(t, h, "POST", "/api/scan", `{`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	h := newTestHandler(t)
	w := doJSON(t, h, "GET", "/api/history", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("expected empty JSON array, got %q", w.Body.String())
	}

	doJSON(t, h, "POST", "/api/scan", `{"payload":"ABC123"}`)
	w = doJSON(t, h, "GET", "/api/history", "")
	var hist record.History
	if err := json.Unmarshal(w.Body.Bytes(), &hist); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(hist) != 1 || hist[0].Payload != "ABC123" {
		t.Fatalf("unexpected history: %+v", hist)
	}
}

func TestExportEndpoint(t *testing.T) {
	h := newTestHandler(t)
	w := doJSON(t, h, "GET", "/api/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "no scans recorded") {
		t.Fatalf("empty export must carry the no-data indicator, got %q", w.Body.String())
	}

	doJSON(t, h, "POST", "/api/scan", `{"payload":"ABC123"}`)
	w = doJSON(t, h, "GET", "/api/export", "")
	if !strings.Contains(w.Body.String(), "ABC123") {
		t.Fatalf("export missing payload: %q", w.Body.String())
	}
}

func TestClearEndpoint(t *testing.T) {
	h := newTestHandler(t)
	doJSON(t, h, "POST", "/api/scan", `{"payload":"ABC123"}`)
	w := doJSON(t, h, "POST", "/api/clear", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w = doJSON(t, h, "GET", "/api/status", "")
	var st struct {
		State   string `json:"state"`
		Records int    `json:"records"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Records != 0 {
		t.Fatalf("expected 0 records after clear, got %d", st.Records)
	}
}

func TestStatusEndpoint(t *testing.T) {
	h := newTestHandler(t)
	w := doJSON(t, h, "GET", "/api/status", "")
	var st struct {
		State   string `json:"state"`
		Records int    `json:"records"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.State != "idle" || st.Records != 0 {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestMountEcho(t *testing.T) {
	e := echo.New()
	MountEcho(e, "/api", newTestController(t))

	w := doJSON(t, e, "POST", "/api/scan", `{"payload":"ABC123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(t, e, "GET", "/api/history", "")
	var hist record.History
	if err := json.Unmarshal(w.Body.Bytes(), &hist); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("expected 1 record, got %d", len(hist))
	}
}
