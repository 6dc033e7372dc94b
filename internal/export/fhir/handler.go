package fhir

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medsim/exporter/internal/record"
)

// RecordSource retrieves a patient's full health record.
type RecordSource interface {
	FetchRecord(ctx context.Context, patientID string) (*record.Record, error)
}

// Handler provides HTTP endpoints for FHIR bundle export.
type Handler struct {
	mapper *Mapper
	source RecordSource
}

// NewHandler creates a new FHIR export handler.
func NewHandler(mapper *Mapper, source RecordSource) *Handler {
	return &Handler{mapper: mapper, source: source}
}

// RegisterRoutes registers FHIR export endpoints on the provided route group.
//
//	GET  /api/v1/patients/:id/fhir  - Export a stored patient as a bundle
//	POST /api/v1/fhir/export        - Export a record posted in the body
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/patients/:id/fhir", h.ExportPatient)
	g.POST("/fhir/export", h.ExportRecord)
}

// ExportPatient handles GET /api/v1/patients/:id/fhir.
// Query parameters: version (dstu2|stu3|r4, default r4) and at
// (epoch milliseconds cutoff, default now).
func (h *Handler) ExportPatient(c echo.Context) error {
	patientID := c.Param("id")
	if patientID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "patient ID is required",
		})
	}

	mapper, stopTime, err := h.requestMapper(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	rec, err := h.source.FetchRecord(c.Request().Context(), patientID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "patient not found: " + err.Error(),
		})
	}

	doc, err := mapper.MapPatient(rec, stopTime)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{
			"error": "failed to export patient: " + err.Error(),
		})
	}

	return c.JSON(http.StatusOK, doc.Bundle)
}

// ExportRecord handles POST /api/v1/fhir/export.
// It accepts a record JSON body and returns the exported bundle.
func (h *Handler) ExportRecord(c echo.Context) error {
	var rec record.Record
	if err := c.Bind(&rec); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "failed to parse record: " + err.Error(),
		})
	}
	if err := rec.Relink(); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "failed to relink record: " + err.Error(),
		})
	}

	mapper, stopTime, err := h.requestMapper(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	doc, err := mapper.MapPatient(&rec, stopTime)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{
			"error": "failed to export record: " + err.Error(),
		})
	}

	return c.JSON(http.StatusOK, doc.Bundle)
}

// requestMapper derives the mapper and cutoff from request query parameters.
func (h *Handler) requestMapper(c echo.Context) (*Mapper, int64, error) {
	version, err := ParseVersion(c.QueryParam("version"))
	if err != nil {
		return nil, 0, err
	}

	stopTime := time.Now().UnixMilli()
	if at := c.QueryParam("at"); at != "" {
		stopTime, err = strconv.ParseInt(at, 10, 64)
		if err != nil {
			return nil, 0, err
		}
	}

	mapper := h.mapper
	if version != mapper.Version {
		mapper = NewMapper(version, mapper.Terminology, mapper.Logger)
	}
	return mapper, stopTime, nil
}
