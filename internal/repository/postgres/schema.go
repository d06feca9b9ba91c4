package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const createMedicalRecordsTable = `
CREATE TABLE IF NOT EXISTS medical_records (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	doc_type    TEXT,
	docinfo     JSONB,
	record_date TIMESTAMPTZ,
	metadata    TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deleted_at  TIMESTAMPTZ
)`

const createFindingLogsTable = `
CREATE TABLE IF NOT EXISTS finding_logs (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	record_id   TEXT NOT NULL DEFAULT '',
	doc_type    TEXT NOT NULL DEFAULT '',
	rule        TEXT NOT NULL,
	severity    TEXT NOT NULL,
	text        TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	UNIQUE (user_id, record_id, rule, text)
)`

const createIndexes = `
CREATE INDEX IF NOT EXISTS idx_medical_records_user_recent
	ON medical_records (user_id, COALESCE(record_date, created_at) DESC) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_finding_logs_user ON finding_logs (user_id, occurred_at DESC);
`

// CreateSchema creates the tables the service reads and writes in a single
// transaction.
func (r *BaseRepository) CreateSchema(ctx context.Context) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, stmt := range []string{createMedicalRecordsTable, createFindingLogsTable, createIndexes} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create schema: %w", err)
			}
		}
		return nil
	})
}
