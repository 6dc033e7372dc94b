package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medsim/exporter/internal/api"
	"github.com/medsim/exporter/internal/config"
	"github.com/medsim/exporter/internal/export/ccda"
	"github.com/medsim/exporter/internal/export/fhir"
	"github.com/medsim/exporter/internal/export/hl7v2"
	"github.com/medsim/exporter/internal/export/text"
	"github.com/medsim/exporter/internal/record"
	"github.com/medsim/exporter/internal/store"
	"github.com/medsim/exporter/internal/terminology"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "exporter",
		Short: "Health record export server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(exportCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the export API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the record table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required to migrate")
			}

			ctx := context.Background()
			pool, err := store.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := store.Migrate(ctx, pool); err != nil {
				return err
			}
			fmt.Println("Migration applied successfully.")
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a record file without a server",
		RunE: func(cmd *cobra.Command, args []string) error {
			recordPath, _ := cmd.Flags().GetString("record")
			format, _ := cmd.Flags().GetString("format")
			outDir, _ := cmd.Flags().GetString("out")
			at, _ := cmd.Flags().GetInt64("at")

			if recordPath == "" {
				return fmt.Errorf("--record is required")
			}
			if at == 0 {
				at = time.Now().UnixMilli()
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			rec, err := loadRecord(recordPath)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			return exportRecord(cfg, rec, format, outDir, at)
		},
	}
	cmd.Flags().String("record", "", "Path to a record JSON file")
	cmd.Flags().String("format", "fhir", "Output format: fhir, ccda, hl7v2, text, or csv")
	cmd.Flags().String("out", ".", "Output directory")
	cmd.Flags().Int64("at", 0, "Export cutoff in epoch milliseconds (default: now)")
	return cmd
}

func loadRecord(path string) (*record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record file: %w", err)
	}
	var rec record.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse record file: %w", err)
	}
	if err := rec.Relink(); err != nil {
		return nil, fmt.Errorf("relink record: %w", err)
	}
	return &rec, nil
}

// newRegistry builds the sealed terminology registry, loading value-set
// expansions from the configured file when one is named.
func newRegistry(cfg *config.Config) (*terminology.Registry, error) {
	reg := terminology.NewRegistry()
	if cfg.ValueSetsPath != "" {
		if err := reg.LoadFile(cfg.ValueSetsPath); err != nil {
			return nil, err
		}
	}
	reg.Seal()
	return reg, nil
}

func exportRecord(cfg *config.Config, rec *record.Record, format, outDir string, at int64) error {
	logger := newLogger()
	reg, err := newRegistry(cfg)
	if err != nil {
		return err
	}
	patientID := ""
	if rec.Patient != nil {
		patientID = rec.Patient.ID
	}

	switch format {
	case "fhir":
		version, err := fhir.ParseVersion(cfg.FHIRVersion)
		if err != nil {
			return err
		}
		doc, err := fhir.NewMapper(version, reg, logger).MapPatient(rec, at)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(doc.Bundle, "", "  ")
		if err != nil {
			return err
		}
		return writeOutput(outDir, patientID+".fhir.json", data)

	case "ccda":
		data, err := ccda.NewGenerator(cfg.OrgName, cfg.OrgOID, reg, logger).GenerateCCD(rec, at)
		if err != nil {
			return err
		}
		return writeOutput(outDir, patientID+".ccda.xml", data)

	case "hl7v2":
		data, err := hl7v2.NewGenerator(cfg.SendingApp, cfg.SendingFacility, reg, logger).GenerateADT(rec, at)
		if err != nil {
			return err
		}
		return writeOutput(outDir, patientID+".hl7", data)

	case "text":
		data, err := text.Summary(rec, at)
		if err != nil {
			return err
		}
		return writeOutput(outDir, patientID+".txt", data)

	case "csv":
		return exportCSV(rec, outDir, at)

	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func exportCSV(rec *record.Record, outDir string, at int64) error {
	names := []string{
		"patients.csv", "encounters.csv", "conditions.csv", "observations.csv",
		"procedures.csv", "medications.csv", "immunizations.csv", "careplans.csv", "claims.csv",
	}
	files := make([]*os.File, len(names))
	for i, name := range names {
		f, err := os.Create(filepath.Join(outDir, name))
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		defer f.Close()
		files[i] = f
	}

	w, err := text.NewCSVWriter(text.CSVOutputs{
		Patients:      files[0],
		Encounters:    files[1],
		Conditions:    files[2],
		Observations:  files[3],
		Procedures:    files[4],
		Medications:   files[5],
		Immunizations: files[6],
		CarePlans:     files[7],
		Claims:        files[8],
	})
	if err != nil {
		return err
	}
	if err := w.Append(rec, at); err != nil {
		return err
	}
	return w.Flush()
}

func writeOutput(outDir, name string, data []byte) error {
	path := filepath.Join(outDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Println("Wrote", path)
	return nil
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	var repo store.RecordRepository
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = store.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		if err := store.Migrate(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
		repo = store.NewRecordRepo(pool)
		logger.Info().Msg("connected to database")
	} else {
		repo = store.NewMemoryRepo()
		logger.Warn().Msg("no DATABASE_URL set, using the in-memory store")
	}

	reg, err := newRegistry(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load value sets")
	}
	if cfg.ValueSetsPath != "" {
		logger.Info().Str("path", cfg.ValueSetsPath).Int("sets", len(reg.URIs())).Msg("loaded value sets")
	}

	e, err := api.NewServer(cfg, repo, pool, reg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
