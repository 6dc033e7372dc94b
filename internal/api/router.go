package api

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/medsim/exporter/internal/config"
	"github.com/medsim/exporter/internal/export/ccda"
	"github.com/medsim/exporter/internal/export/fhir"
	"github.com/medsim/exporter/internal/export/hl7v2"
	"github.com/medsim/exporter/internal/export/ndjson"
	"github.com/medsim/exporter/internal/export/text"
	"github.com/medsim/exporter/internal/store"
	"github.com/medsim/exporter/internal/terminology"
)

// NewServer assembles the Echo server with every export pipeline wired to
// the given repository. The pool may be nil when the server runs on the
// in-memory store.
func NewServer(cfg *config.Config, repo store.RecordRepository, pool *pgxpool.Pool, reg *terminology.Registry, logger zerolog.Logger) (*echo.Echo, error) {
	version, err := fhir.ParseVersion(cfg.FHIRVersion)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(Recovery(logger))
	e.Use(RequestID())
	e.Use(Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", store.HealthHandler(pool))

	apiV1 := e.Group("/api/v1")
	if !cfg.IsDev() && cfg.JWTSecret != "" {
		apiV1.Use(JWTMiddleware(cfg.JWTSecret))
	}

	mapper := fhir.NewMapper(version, reg, logger)

	NewRecordsHandler(repo).RegisterRoutes(apiV1)
	fhir.NewHandler(mapper, repo).RegisterRoutes(apiV1)
	ccda.NewHandler(ccda.NewGenerator(cfg.OrgName, cfg.OrgOID, reg, logger), repo).RegisterRoutes(apiV1)
	hl7v2.NewHandler(hl7v2.NewGenerator(cfg.SendingApp, cfg.SendingFacility, reg, logger), repo).RegisterRoutes(apiV1)
	text.NewHandler(repo).RegisterRoutes(apiV1)
	ndjson.NewHandler(ndjson.NewManager(repo, mapper, cfg.BulkWorkers, logger)).RegisterRoutes(apiV1)

	return e, nil
}
