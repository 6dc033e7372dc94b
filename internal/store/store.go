// Package store persists health records and serves them to the export
// pipelines.
package store

import (
	"context"
	"errors"

	"github.com/medsim/exporter/internal/record"
)

// ErrNotFound is returned when no record exists for a patient ID.
var ErrNotFound = errors.New("store: record not found")

// RecordRepository stores full health records keyed by patient ID. Every
// export pipeline's RecordSource interface is satisfied by FetchRecord.
type RecordRepository interface {
	Save(ctx context.Context, rec *record.Record) error
	FetchRecord(ctx context.Context, patientID string) (*record.Record, error)
	Delete(ctx context.Context, patientID string) error
	ListPatientIDs(ctx context.Context, limit, offset int) ([]string, int, error)
}
