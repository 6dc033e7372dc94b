package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medsim/exporter/internal/record"
)

type recordRepoPG struct {
	pool *pgxpool.Pool
}

// NewRecordRepo creates a PostgreSQL-backed record repository. Records are
// stored as JSONB documents keyed by patient ID.
func NewRecordRepo(pool *pgxpool.Pool) RecordRepository {
	return &recordRepoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *recordRepoPG) conn(context.Context) querier {
	return r.pool
}

// Migrate creates the record table if it does not already exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS patient_record (
			patient_id TEXT PRIMARY KEY,
			doc        JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("store: create patient_record table: %w", err)
	}
	return nil
}

func (r *recordRepoPG) Save(ctx context.Context, rec *record.Record) error {
	if rec == nil || rec.Patient == nil || rec.Patient.ID == "" {
		return fmt.Errorf("store: patient identity is required")
	}
	rec.Normalize()

	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: marshal record: %w", err)
	}

	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_record (patient_id, doc)
		VALUES ($1, $2)
		ON CONFLICT (patient_id) DO UPDATE SET doc = $2, updated_at = NOW()`,
		rec.Patient.ID, doc,
	)
	if err != nil {
		return fmt.Errorf("store: save record %s: %w", rec.Patient.ID, err)
	}
	return nil
}

func (r *recordRepoPG) FetchRecord(ctx context.Context, patientID string) (*record.Record, error) {
	var doc []byte
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT doc FROM patient_record WHERE patient_id = $1`, patientID,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: fetch record %s: %w", patientID, err)
	}

	var rec record.Record
	if err := json.Unmarshal(doc, &rec); err != nil {
		return nil, fmt.Errorf("store: unmarshal record %s: %w", patientID, err)
	}
	if err := rec.Relink(); err != nil {
		return nil, fmt.Errorf("store: relink record %s: %w", patientID, err)
	}
	return &rec, nil
}

func (r *recordRepoPG) Delete(ctx context.Context, patientID string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM patient_record WHERE patient_id = $1`, patientID)
	if err != nil {
		return fmt.Errorf("store: delete record %s: %w", patientID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *recordRepoPG) ListPatientIDs(ctx context.Context, limit, offset int) ([]string, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient_record`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count records: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT patient_id FROM patient_record
		ORDER BY patient_id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list records: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, 0, err
		}
		ids = append(ids, id)
	}
	return ids, total, rows.Err()
}
