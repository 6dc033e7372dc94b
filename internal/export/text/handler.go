package text

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

// Handler provides HTTP endpoints for plain-text summaries.
type Handler struct {
	source RecordSource
}

// NewHandler creates a new text summary handler.
func NewHandler(source RecordSource) *Handler {
	return &Handler{source: source}
}

// RegisterRoutes registers text endpoints on the provided route group.
//
//	GET  /api/v1/patients/:id/summary - Render a stored patient as text
//	POST /api/v1/text/export          - Render a record body as text
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/patients/:id/summary", h.Summarize)
	g.POST("/text/export", h.ExportRecord)
}

// Summarize handles GET /api/v1/patients/:id/summary. The optional at
// query parameter sets the export cutoff in epoch milliseconds.
func (h *Handler) Summarize(c echo.Context) error {
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

	body, err := Summary(rec, stopTime)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to render summary: " + err.Error(),
		})
	}

	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", body)
}

// ExportRecord handles POST /api/v1/text/export.
// It accepts a record JSON body and returns the plain-text summary.
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

	body, err := Summary(&rec, stopTime)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to render summary: " + err.Error(),
		})
	}

	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", body)
}

func cutoff(c echo.Context) (int64, error) {
	if at := c.QueryParam("at"); at != "" {
		return strconv.ParseInt(at, 10, 64)
	}
	return time.Now().UnixMilli(), nil
}
