package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jwalitptl/health-assistant/internal/model"
	"github.com/jwalitptl/health-assistant/internal/repository"
)

const medicalRecordColumns = `id, user_id, doc_type, docinfo, record_date, metadata, created_at`

type medicalRecordRow struct {
	ID         string         `db:"id"`
	UserID     string         `db:"user_id"`
	DocType    sql.NullString `db:"doc_type"`
	DocInfo    []byte         `db:"docinfo"`
	RecordDate sql.NullTime   `db:"record_date"`
	Metadata   sql.NullString `db:"metadata"`
	CreatedAt  time.Time      `db:"created_at"`
}

// toModel converts a row. Stored docinfo that is not a JSON object becomes an
// empty map instead of failing the whole listing.
func (row *medicalRecordRow) toModel() *model.MedicalRecord {
	record := &model.MedicalRecord{
		ID:        row.ID,
		UserID:    row.UserID,
		DocInfo:   model.ParseDocInfo(row.DocInfo),
		Metadata:  row.Metadata.String,
		CreatedAt: row.CreatedAt,
	}
	if row.DocType.Valid {
		docType := row.DocType.String
		record.DocType = &docType
	}
	if row.RecordDate.Valid {
		date := row.RecordDate.Time
		record.Date = &date
	}
	return record
}

type medicalRecordRepository struct {
	BaseRepository
}

func NewMedicalRecordRepository(base BaseRepository) repository.MedicalRecordRepository {
	return &medicalRecordRepository{base}
}

func (r *medicalRecordRepository) Get(ctx context.Context, id string) (*model.MedicalRecord, error) {
	query := `SELECT ` + medicalRecordColumns + ` FROM medical_records
		WHERE id = $1 AND deleted_at IS NULL`

	var row medicalRecordRow
	if err := r.GetDB().GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get medical record: %w", err)
	}
	return row.toModel(), nil
}

// ListRecent returns the user's records, most recent first.
func (r *medicalRecordRepository) ListRecent(ctx context.Context, userID string, limit int) ([]*model.MedicalRecord, error) {
	return r.List(ctx, userID, &model.RecordFilters{Limit: limit})
}

func (r *medicalRecordRepository) List(ctx context.Context, userID string, filters *model.RecordFilters) ([]*model.MedicalRecord, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + medicalRecordColumns + ` FROM medical_records
		WHERE user_id = $1 AND deleted_at IS NULL`)
	args := []interface{}{userID}

	if filters.HasDocType() {
		args = append(args, strings.TrimSpace(filters.DocType))
		sb.WriteString(fmt.Sprintf(" AND LOWER(doc_type) = LOWER($%d)", len(args)))
	}

	sb.WriteString(" ORDER BY COALESCE(record_date, created_at) DESC, created_at DESC")

	if filters != nil && filters.Limit > 0 {
		args = append(args, filters.Limit)
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}

	var rows []medicalRecordRow
	if err := r.GetDB().SelectContext(ctx, &rows, sb.String(), args...); err != nil {
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}

	records := make([]*model.MedicalRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].toModel())
	}
	return records, nil
}
