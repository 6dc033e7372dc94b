package ccda

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

// Handler provides HTTP endpoints for C-CDA generation.
type Handler struct {
	generator *Generator
	source    RecordSource
}

// NewHandler creates a new C-CDA handler.
func NewHandler(generator *Generator, source RecordSource) *Handler {
	return &Handler{generator: generator, source: source}
}

// RegisterRoutes registers C-CDA endpoints on the provided route group.
//
//	GET  /api/v1/patients/:id/ccd  - Generate a CCD for a stored patient
//	POST /api/v1/ccda/export       - Generate a CCD from a record body
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/patients/:id/ccd", h.GenerateCCD)
	g.POST("/ccda/export", h.ExportRecord)
}

// GenerateCCD handles GET /api/v1/patients/:id/ccd. The optional at query
// parameter sets the export cutoff in epoch milliseconds.
func (h *Handler) GenerateCCD(c echo.Context) error {
	patientID := c.Param("id")
	if patientID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "patient ID is required",
		})
	}

	stopTime, err := cutoff(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	rec, err := h.source.FetchRecord(c.Request().Context(), patientID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "patient not found: " + err.Error(),
		})
	}

	xmlData, err := h.generator.GenerateCCD(rec, stopTime)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to generate CCD: " + err.Error(),
		})
	}

	return c.Blob(http.StatusOK, "application/xml", xmlData)
}

// ExportRecord handles POST /api/v1/ccda/export.
// It accepts a record JSON body and returns the CCD XML document.
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

	stopTime, err := cutoff(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	xmlData, err := h.generator.GenerateCCD(&rec, stopTime)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to generate CCD: " + err.Error(),
		})
	}

	return c.Blob(http.StatusOK, "application/xml", xmlData)
}

func cutoff(c echo.Context) (int64, error) {
	if at := c.QueryParam("at"); at != "" {
		return strconv.ParseInt(at, 10, 64)
	}
	return time.Now().UnixMilli(), nil
}
