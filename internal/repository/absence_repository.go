package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/faltometro/faltometro-api/internal/models"
)

// AbsenceRepository handles persistence of absence records. The subject's
// denormalized absence counter is adjusted in the same transaction as the
// record write, never by read-then-write in application code.
type AbsenceRepository struct {
	db *sqlx.DB
}

// NewAbsenceRepository constructs the repository.
func NewAbsenceRepository(db *sqlx.DB) *AbsenceRepository {
	return &AbsenceRepository{db: db}
}

// ListBySubject returns the subject's records, most recent date first.
func (r *AbsenceRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.AbsenceRecord, error) {
	const query = `SELECT id, subject_id, date, created_at FROM absence_records
        WHERE subject_id = $1 ORDER BY date DESC`
	var records []models.AbsenceRecord
	if err := r.db.SelectContext(ctx, &records, query, subjectID); err != nil {
		return nil, fmt.Errorf("list absences: %w", err)
	}
	return records, nil
}

// Create inserts the record and increments the subject counter as one
// transaction. A second record for the same (subject, date) pair surfaces
// as the absence_records_subject_id_date_key unique violation and leaves
// the counter untouched.
func (r *AbsenceRepository) Create(ctx context.Context, record *models.AbsenceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create absence: %w", err)
	}

	const insert = `INSERT INTO absence_records (id, subject_id, date, created_at)
        VALUES (:id, :subject_id, :date, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, record); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create absence: %w", err)
	}

	const bump = `UPDATE subjects SET absence_count = absence_count + 1, updated_at = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, bump, record.SubjectID, time.Now().UTC()); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("increment absence counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create absence: %w", err)
	}
	return nil
}

// Delete removes the record and decrements the subject counter as one
// transaction. Zero rows affected means the record does not exist under
// that subject and surfaces as sql.ErrNoRows.
func (r *AbsenceRepository) Delete(ctx context.Context, recordID, subjectID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete absence: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM absence_records WHERE id = $1 AND subject_id = $2`, recordID, subjectID)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete absence: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete absence rows affected: %w", err)
	}
	if affected == 0 {
		tx.Rollback() //nolint:errcheck
		return sql.ErrNoRows
	}

	const drop = `UPDATE subjects SET absence_count = absence_count - 1, updated_at = $2 WHERE id = $1 AND absence_count > 0`
	if _, err := tx.ExecContext(ctx, drop, subjectID, time.Now().UTC()); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("decrement absence counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete absence: %w", err)
	}
	return nil
}

// CountBySubject returns the number of records for a subject. Used by
// integrity checks; normal reads rely on the denormalized counter.
func (r *AbsenceRepository) CountBySubject(ctx context.Context, subjectID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM absence_records WHERE subject_id = $1`, subjectID); err != nil {
		return 0, fmt.Errorf("count absences: %w", err)
	}
	return count, nil
}
