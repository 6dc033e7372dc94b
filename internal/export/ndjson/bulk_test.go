package ndjson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/medsim/exporter/internal/export/fhir"
	"github.com/medsim/exporter/internal/record"
)

type mockSource struct {
	mu      sync.Mutex
	records map[string]*record.Record
	fetches int

	// gate, when set, blocks every fetch until it is closed.
	gate chan struct{}
}

func (m *mockSource) FetchRecord(_ context.Context, patientID string) (*record.Record, error) {
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	m.fetches++
	m.mu.Unlock()
	rec, ok := m.records[patientID]
	if !ok {
		return nil, fmt.Errorf("no record for %s", patientID)
	}
	return rec, nil
}

func (m *mockSource) fetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches
}

func testRecordFor(id string) *record.Record {
	patient := &record.Patient{
		ID:        id,
		Seed:      42,
		FirstName: "John",
		LastName:  "Doe",
		Gender:    "M",
		BirthTime: 662688000000,
	}

	enc := &record.Encounter{EncounterType: record.Ambulatory}
	enc.Start = 1000000000000
	enc.Codes = []record.Code{{System: "SNOMED-CT", Code: "185349003", Display: "Outpatient visit"}}

	cond := &record.Condition{}
	cond.Start = enc.Start
	cond.Codes = []record.Code{{System: "SNOMED-CT", Code: "44054006", Display: "Diabetes"}}
	enc.Conditions = append(enc.Conditions, cond)

	return &record.Record{Patient: patient, Encounters: []*record.Encounter{enc}}
}

func testManager(ids ...string) (*Manager, *mockSource) {
	source := &mockSource{records: make(map[string]*record.Record)}
	for _, id := range ids {
		source.records[id] = testRecordFor(id)
	}
	mapper := fhir.NewMapper(fhir.R4, nil, zerolog.Nop())
	return NewManager(source, mapper, 4, zerolog.Nop()), source
}

func TestWriter_ConcurrentLinesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				payload := map[string]interface{}{
					"worker": n,
					"filler": strings.Repeat("x", 200),
				}
				if err := w.WriteResource(payload); err != nil {
					t.Errorf("write: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 400 {
		t.Fatalf("expected 400 lines, got %d", len(lines))
	}
	for i, line := range lines {
		var v map[string]interface{}
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", i, err)
		}
	}
	if w.Count() != 400 {
		t.Errorf("expected count 400, got %d", w.Count())
	}
}

// waitForJob polls until the job finishes and returns its final state.
func waitForJob(t *testing.T, m *Manager, id string) *ExportJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := m.GetJob(id)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		if job.CompletedTime != nil {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish in time", id)
	return nil
}

func TestStartExport_Cohort(t *testing.T) {
	m, source := testManager("p1", "p2", "p3")

	started, err := m.StartExport(context.Background(), []string{"p1", "p2", "p3"}, 2000000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	job := waitForJob(t, m, started.ID)

	if job.Status != "completed" {
		t.Errorf("expected completed, got %q", job.Status)
	}
	if job.ProcessedCount != 3 {
		t.Errorf("expected 3 processed, got %d", job.ProcessedCount)
	}
	if len(job.Errors) != 0 {
		t.Errorf("unexpected errors: %v", job.Errors)
	}
	if got := source.fetchCount(); got != 3 {
		t.Errorf("expected 3 fetches, got %d", got)
	}

	data, err := m.Result(job.ID)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != job.ResourceCount {
		t.Fatalf("expected %d lines, got %d", job.ResourceCount, len(lines))
	}

	// Each record maps to a patient, an encounter, a condition and a claim.
	if job.ResourceCount != 12 {
		t.Errorf("expected 12 resources for 3 patients, got %d", job.ResourceCount)
	}
	patients := 0
	for _, line := range lines {
		var probe struct {
			ResourceType string `json:"resourceType"`
		}
		if err := json.Unmarshal([]byte(line), &probe); err != nil {
			t.Fatalf("invalid line: %v", err)
		}
		if probe.ResourceType == "Patient" {
			patients++
		}
	}
	if patients != 3 {
		t.Errorf("expected 3 Patient lines, got %d", patients)
	}
}

func TestStartExport_ReturnsBeforeCompletion(t *testing.T) {
	m, source := testManager("p1")
	source.gate = make(chan struct{})

	job, err := m.StartExport(context.Background(), []string{"p1"}, 2000000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Status != "processing" || job.CompletedTime != nil {
		t.Errorf("expected a processing job on return, got %q", job.Status)
	}
	if _, err := m.Result(job.ID); err == nil {
		t.Error("expected an error reading the result of a running job")
	}

	close(source.gate)
	done := waitForJob(t, m, job.ID)
	if done.Status != "completed" {
		t.Errorf("expected completed after the gate opened, got %q", done.Status)
	}
}

func TestStartExport_TalliesPerPatientFailures(t *testing.T) {
	m, _ := testManager("p1")

	started, err := m.StartExport(context.Background(), []string{"p1", "missing"}, 2000000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	job := waitForJob(t, m, started.ID)

	if job.Status != "completed" {
		t.Errorf("partial failure should still complete, got %q", job.Status)
	}
	if len(job.Errors) != 1 {
		t.Fatalf("expected one error, got %v", job.Errors)
	}
	if job.Errors[0].PatientID != "missing" {
		t.Errorf("expected the missing patient in the error, got %q", job.Errors[0].PatientID)
	}
}

func TestStartExport_AllFailuresMarkJobError(t *testing.T) {
	m, _ := testManager()

	started, err := m.StartExport(context.Background(), []string{"a", "b"}, 2000000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	job := waitForJob(t, m, started.ID)
	if job.Status != "error" {
		t.Errorf("expected error status when every patient fails, got %q", job.Status)
	}
}

func TestStartExport_RequiresPatients(t *testing.T) {
	m, _ := testManager()
	if _, err := m.StartExport(context.Background(), nil, 2000000000000); err == nil {
		t.Fatal("expected an error for an empty cohort")
	}
}

func TestGetJob_NotFound(t *testing.T) {
	m, _ := testManager()
	if _, err := m.GetJob("nope"); err == nil {
		t.Fatal("expected an error for an unknown job")
	}
	if _, err := m.Result("nope"); err == nil {
		t.Fatal("expected an error for an unknown job result")
	}
}
