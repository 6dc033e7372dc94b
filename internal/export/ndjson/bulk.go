package ndjson

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medsim/exporter/internal/export/fhir"
	"github.com/medsim/exporter/internal/record"
)

// ExportError records one patient that failed during a bulk export.
type ExportError struct {
	PatientID string `json:"patientId"`
	Error     string `json:"error"`
}

// ExportJob tracks a bulk cohort export.
type ExportJob struct {
	ID             string        `json:"id"`
	Status         string        `json:"status"` // processing, completed, error
	PatientCount   int           `json:"patientCount"`
	ProcessedCount int           `json:"processedCount"`
	ResourceCount  int           `json:"resourceCount"`
	Errors         []ExportError `json:"errors,omitempty"`
	RequestTime    time.Time     `json:"requestTime"`
	CompletedTime  *time.Time    `json:"completedTime,omitempty"`

	result []byte
}

// RecordSource retrieves a patient's full health record.
type RecordSource interface {
	FetchRecord(ctx context.Context, patientID string) (*record.Record, error)
}

// BundleMapper maps a record into a FHIR document. *fhir.Mapper satisfies it.
type BundleMapper interface {
	MapPatient(rec *record.Record, stopTime int64) (*fhir.Document, error)
}

// Manager runs bulk NDJSON export jobs over a patient cohort. Each job
// fans patient IDs out to a fixed pool of workers that fetch, map and
// write concurrently into a single NDJSON stream.
type Manager struct {
	mu   sync.RWMutex
	jobs map[string]*ExportJob

	source  RecordSource
	mapper  BundleMapper
	workers int
	maxJobs int
	logger  zerolog.Logger
}

// NewManager creates a Manager with the given worker pool size.
func NewManager(source RecordSource, mapper BundleMapper, workers int, logger zerolog.Logger) *Manager {
	if workers < 1 {
		workers = 1
	}
	return &Manager{
		jobs:    make(map[string]*ExportJob),
		source:  source,
		mapper:  mapper,
		workers: workers,
		maxJobs: 5,
		logger:  logger,
	}
}

// StartExport schedules an export of the given patients as of stopTime
// and returns the job in its processing state. The export runs in the
// background; callers poll GetJob and fetch the stream with Result once
// CompletedTime is set. Per-patient failures are tallied on the job
// rather than aborting the export.
func (m *Manager) StartExport(ctx context.Context, patientIDs []string, stopTime int64) (*ExportJob, error) {
	if len(patientIDs) == 0 {
		return nil, fmt.Errorf("ndjson: no patient IDs provided")
	}

	m.mu.Lock()
	active := 0
	for _, j := range m.jobs {
		if j.Status == "processing" {
			active++
		}
	}
	if active >= m.maxJobs {
		m.mu.Unlock()
		return nil, fmt.Errorf("ndjson: max concurrent export jobs reached (%d)", m.maxJobs)
	}

	job := &ExportJob{
		ID:           uuid.NewString(),
		Status:       "processing",
		PatientCount: len(patientIDs),
		RequestTime:  time.Now().UTC(),
	}
	m.jobs[job.ID] = job
	snapshot := m.snapshotLocked(job)
	m.mu.Unlock()

	// The job outlives the request; keep the caller's context values but
	// not its cancellation.
	go m.run(context.WithoutCancel(ctx), job, patientIDs, stopTime)

	return snapshot, nil
}

func (m *Manager) run(ctx context.Context, job *ExportJob, patientIDs []string, stopTime int64) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	var wg sync.WaitGroup
	ids := make(chan string)

	for i := 0; i < m.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range ids {
				err := m.exportOne(ctx, w, id, stopTime)
				m.mu.Lock()
				job.ProcessedCount++
				if err != nil {
					job.Errors = append(job.Errors, ExportError{PatientID: id, Error: err.Error()})
				}
				m.mu.Unlock()
			}
		}()
	}

	for _, id := range patientIDs {
		ids <- id
	}
	close(ids)
	wg.Wait()

	flushErr := w.Flush()

	done := time.Now().UTC()
	m.mu.Lock()
	job.Status = "completed"
	if flushErr != nil {
		job.Status = "error"
		job.Errors = append(job.Errors, ExportError{Error: "flush export stream: " + flushErr.Error()})
	} else if len(job.Errors) == job.PatientCount {
		job.Status = "error"
	}
	job.ResourceCount = w.Count()
	job.CompletedTime = &done
	job.result = buf.Bytes()
	errs := len(job.Errors)
	m.mu.Unlock()

	m.logger.Info().
		Str("job_id", job.ID).
		Int("patients", job.PatientCount).
		Int("resources", w.Count()).
		Int("errors", errs).
		Msg("bulk export finished")
}

func (m *Manager) exportOne(ctx context.Context, w *Writer, patientID string, stopTime int64) error {
	rec, err := m.source.FetchRecord(ctx, patientID)
	if err != nil {
		return fmt.Errorf("fetch record: %w", err)
	}
	doc, err := m.mapper.MapPatient(rec, stopTime)
	if err != nil {
		return fmt.Errorf("map patient: %w", err)
	}
	for _, entry := range doc.Bundle.Entry {
		if err := w.WriteResource(entry.Resource); err != nil {
			return fmt.Errorf("write resource: %w", err)
		}
	}
	return nil
}

// snapshotLocked copies a job so callers never observe the background
// run mutating it. The caller must hold m.mu.
func (m *Manager) snapshotLocked(job *ExportJob) *ExportJob {
	cp := *job
	cp.Errors = append([]ExportError(nil), job.Errors...)
	cp.result = nil
	return &cp
}

// GetJob retrieves a point-in-time view of an export job by ID.
func (m *Manager) GetJob(id string) (*ExportJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("ndjson: export job not found: %s", id)
	}
	return m.snapshotLocked(job), nil
}

// Result returns the NDJSON output of a completed job.
func (m *Manager) Result(id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("ndjson: export job not found: %s", id)
	}
	if job.CompletedTime == nil {
		return nil, fmt.Errorf("ndjson: export job %s is still processing", id)
	}
	return job.result, nil
}
