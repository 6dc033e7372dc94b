package hl7v2

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/medsim/exporter/internal/record"
)

type mockSource struct {
	rec *record.Record
	err error
}

func (m *mockSource) FetchRecord(ctx context.Context, patientID string) (*record.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rec, nil
}

func TestHandler_GenerateADT_Success(t *testing.T) {
	h := NewHandler(testGenerator(), &mockSource{rec: testRecord()})
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/patient-1/adt?at=2000000000000", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("patient-1")

	if err := h.GenerateADT(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "MSH|") {
		t.Error("expected MSH header in response body")
	}
}

func TestHandler_GenerateADT_PatientNotFound(t *testing.T) {
	h := NewHandler(testGenerator(), &mockSource{err: fmt.Errorf("no such patient")})
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/nonexistent/adt", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("nonexistent")

	if err := h.GenerateADT(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_ParseMessage_RoundTrip(t *testing.T) {
	h := NewHandler(testGenerator(), &mockSource{})
	e := echo.New()

	raw, err := testGenerator().GenerateADT(testRecord(), 2000000000000)
	if err != nil {
		t.Fatalf("failed to generate test message: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/hl7v2/parse", strings.NewReader(string(raw)))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ParseMessage(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v", err)
	}
	if result["Type"] != "ADT^A01" {
		t.Errorf("expected Type ADT^A01, got %v", result["Type"])
	}
}

func TestHandler_ParseMessage_Invalid(t *testing.T) {
	h := NewHandler(testGenerator(), &mockSource{})
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/hl7v2/parse", strings.NewReader("not an hl7 message"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ParseMessage(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	h := NewHandler(testGenerator(), &mockSource{})
	e := echo.New()

	g := e.Group("/api/v1")
	h.RegisterRoutes(g)

	routePaths := make(map[string]bool)
	for _, r := range e.Routes() {
		routePaths[r.Method+":"+r.Path] = true
	}
	for _, path := range []string{
		"GET:/api/v1/patients/:id/adt",
		"POST:/api/v1/hl7v2/parse",
	} {
		if !routePaths[path] {
			t.Errorf("missing expected route: %s", path)
		}
	}
}
