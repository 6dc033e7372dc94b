package ccda

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

func TestHandler_GenerateCCD_Success(t *testing.T) {
	h := NewHandler(testGenerator(), &mockSource{rec: testRecord()})
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/patient-1/ccd?at=2000000000000", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("patient-1")

	if err := h.GenerateCCD(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	contentType := rec.Header().Get("Content-Type")
	if !strings.Contains(contentType, "application/xml") {
		t.Errorf("expected Content-Type containing 'application/xml', got %q", contentType)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "ClinicalDocument") {
		t.Error("expected ClinicalDocument in response body")
	}
	if !strings.Contains(body, "John") {
		t.Error("expected patient name in response body")
	}
}

func TestHandler_GenerateCCD_PatientNotFound(t *testing.T) {
	h := NewHandler(testGenerator(), &mockSource{err: fmt.Errorf("no such patient")})
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/nonexistent/ccd", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("nonexistent")

	if err := h.GenerateCCD(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_ExportRecord_Success(t *testing.T) {
	h := NewHandler(testGenerator(), &mockSource{})
	e := echo.New()

	source := testRecord()
	source.Normalize()
	body, err := json.Marshal(source)
	if err != nil {
		t.Fatalf("failed to marshal record: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ccda/export?at=2000000000000", strings.NewReader(string(body)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ExportRecord(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "44054006") {
		t.Error("expected condition code in exported document")
	}
}

func TestHandler_ExportRecord_InvalidBody(t *testing.T) {
	h := NewHandler(testGenerator(), &mockSource{})
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ccda/export", strings.NewReader("not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ExportRecord(c); err != nil {
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
		"GET:/api/v1/patients/:id/ccd",
		"POST:/api/v1/ccda/export",
	} {
		if !routePaths[path] {
			t.Errorf("missing expected route: %s", path)
		}
	}
}
