package ndjson

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// Handler provides HTTP endpoints for bulk NDJSON export.
type Handler struct {
	manager *Manager
}

// NewHandler creates a new bulk export handler.
func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

// RegisterRoutes registers bulk export endpoints on the provided route group.
//
//	POST /api/v1/bulk/export          - Start a cohort export
//	GET  /api/v1/bulk/export/:id      - Get export job status
//	GET  /api/v1/bulk/export/:id/file - Download the NDJSON output
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/bulk/export", h.StartExport)
	g.GET("/bulk/export/:id", h.GetJob)
	g.GET("/bulk/export/:id/file", h.Download)
}

type exportRequest struct {
	PatientIDs []string `json:"patientIds"`
	At         int64    `json:"at,omitempty"`
}

// StartExport handles POST /api/v1/bulk/export. The body names the cohort
// and an optional cutoff in epoch milliseconds.
func (h *Handler) StartExport(c echo.Context) error {
	var req exportRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "failed to parse export request: " + err.Error(),
		})
	}

	stopTime := req.At
	if stopTime == 0 {
		stopTime = time.Now().UnixMilli()
	}

	job, err := h.manager.StartExport(c.Request().Context(), req.PatientIDs, stopTime)
	if err != nil {
		status := http.StatusBadRequest
		if strings.Contains(err.Error(), "concurrent") {
			status = http.StatusTooManyRequests
		}
		return c.JSON(status, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusAccepted, job)
}

// GetJob handles GET /api/v1/bulk/export/:id.
func (h *Handler) GetJob(c echo.Context) error {
	job, err := h.manager.GetJob(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, job)
}

// Download handles GET /api/v1/bulk/export/:id/file.
func (h *Handler) Download(c echo.Context) error {
	data, err := h.manager.Result(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.Blob(http.StatusOK, "application/fhir+ndjson", data)
}
