package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medsim/exporter/internal/record"
	"github.com/medsim/exporter/internal/store"
	"github.com/medsim/exporter/pkg/pagination"
)

// RecordsHandler manages stored health records.
type RecordsHandler struct {
	repo store.RecordRepository
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(repo store.RecordRepository) *RecordsHandler {
	return &RecordsHandler{repo: repo}
}

// RegisterRoutes registers record management endpoints on the provided group.
//
//	GET    /api/v1/patients            - List stored patient IDs
//	PUT    /api/v1/patients/:id/record - Store or replace a record
//	GET    /api/v1/patients/:id/record - Fetch the raw record
//	DELETE /api/v1/patients/:id        - Delete a record
func (h *RecordsHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/patients", h.List)
	g.PUT("/patients/:id/record", h.Save)
	g.GET("/patients/:id/record", h.Fetch)
	g.DELETE("/patients/:id", h.Delete)
}

// List handles GET /api/v1/patients.
func (h *RecordsHandler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	ids, total, err := h.repo.ListPatientIDs(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to list patients: " + err.Error(),
		})
	}
	if ids == nil {
		ids = []string{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(ids, total, p.Limit, p.Offset))
}

// Save handles PUT /api/v1/patients/:id/record. The path ID must match the
// record's own patient ID.
func (h *RecordsHandler) Save(c echo.Context) error {
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
	if rec.Patient == nil || rec.Patient.ID != c.Param("id") {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "record patient ID does not match the path",
		})
	}

	if err := h.repo.Save(c.Request().Context(), &rec); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to store record: " + err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"patientId": rec.Patient.ID})
}

// Fetch handles GET /api/v1/patients/:id/record.
func (h *RecordsHandler) Fetch(c echo.Context) error {
	rec, err := h.repo.FetchRecord(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "patient not found: " + c.Param("id"),
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to fetch record: " + err.Error(),
		})
	}
	return c.JSON(http.StatusOK, rec)
}

// Delete handles DELETE /api/v1/patients/:id.
func (h *RecordsHandler) Delete(c echo.Context) error {
	err := h.repo.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "patient not found: " + c.Param("id"),
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to delete record: " + err.Error(),
		})
	}
	return c.NoContent(http.StatusNoContent)
}
