package hl7v2

import (
	"context"
	"io"
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

// Handler provides HTTP endpoints for HL7v2 message generation.
type Handler struct {
	generator *Generator
	source    RecordSource
}

// NewHandler creates a new HL7v2 handler.
func NewHandler(generator *Generator, source RecordSource) *Handler {
	return &Handler{generator: generator, source: source}
}

// RegisterRoutes registers HL7v2 endpoints on the provided route group.
//
//	GET  /api/v1/patients/:id/adt  - Generate an ADT^A01 for a stored patient
//	POST /api/v1/hl7v2/parse       - Parse an HL7v2 message into JSON
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/patients/:id/adt", h.GenerateADT)
	g.POST("/hl7v2/parse", h.ParseMessage)
}

// GenerateADT handles GET /api/v1/patients/:id/adt. The optional at query
// parameter sets the export cutoff in epoch milliseconds.
func (h *Handler) GenerateADT(c echo.Context) error {
	patientID := c.Param("id")
	if patientID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "patient ID is required",
		})
	}

	stopTime := time.Now().UnixMilli()
	if at := c.QueryParam("at"); at != "" {
		var err error
		stopTime, err = strconv.ParseInt(at, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
	}

	rec, err := h.source.FetchRecord(c.Request().Context(), patientID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "patient not found: " + err.Error(),
		})
	}

	msg, err := h.generator.GenerateADT(rec, stopTime)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to generate ADT: " + err.Error(),
		})
	}

	return c.Blob(http.StatusOK, "application/hl7-v2", msg)
}

// ParseMessage handles POST /api/v1/hl7v2/parse.
// It accepts raw HL7v2 bytes and returns the parsed structure as JSON.
func (h *Handler) ParseMessage(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "failed to read request body",
		})
	}

	parsed, err := Parse(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "failed to parse message: " + err.Error(),
		})
	}

	return c.JSON(http.StatusOK, parsed)
}
