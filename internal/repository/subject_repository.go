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

// SubjectRepository handles persistence of subjects. Every read and write
// is scoped by the owning user ID; a row belonging to someone else behaves
// exactly like a row that does not exist.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs the repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// Create inserts a new subject with a zero absence counter. A duplicate
// name for the same user surfaces as the subjects_user_id_name_key
// unique violation.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = now
	}
	subject.UpdatedAt = now
	const query = `INSERT INTO subjects (id, user_id, name, duration_type, total_workload_hours, class_duration_hours, absence_count, created_at, updated_at)
        VALUES (:id, :user_id, :name, :duration_type, :total_workload_hours, :class_duration_hours, 0, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Update rewrites the editable fields of a subject owned by the given
// user. Zero rows affected means not-found-or-not-yours.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	subject.UpdatedAt = time.Now().UTC()
	const query = `UPDATE subjects
        SET name = :name, duration_type = :duration_type,
            total_workload_hours = :total_workload_hours,
            class_duration_hours = :class_duration_hours,
            updated_at = :updated_at
        WHERE id = :id AND user_id = :user_id`
	res, err := r.db.NamedExecContext(ctx, query, subject)
	if err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update subject rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByUser returns the user's subjects in insertion order.
func (r *SubjectRepository) ListByUser(ctx context.Context, userID string) ([]models.Subject, error) {
	const query = `SELECT id, user_id, name, duration_type, total_workload_hours, class_duration_hours, absence_count, created_at, updated_at
        FROM subjects WHERE user_id = $1 ORDER BY created_at ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, userID); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindByIDForUser loads one subject scoped by owner. sql.ErrNoRows covers
// both a missing row and another user's row.
func (r *SubjectRepository) FindByIDForUser(ctx context.Context, id, userID string) (*models.Subject, error) {
	const query = `SELECT id, user_id, name, duration_type, total_workload_hours, class_duration_hours, absence_count, created_at, updated_at
        FROM subjects WHERE id = $1 AND user_id = $2`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id, userID); err != nil {
		return nil, err
	}
	return &subject, nil
}

// DeleteCascade removes a subject and all of its absence records in one
// transaction. A partial cascade is never left visible.
func (r *SubjectRepository) DeleteCascade(ctx context.Context, id, userID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete subject: %w", err)
	}

	// Records go first; if the subject turns out not to be ours the whole
	// transaction rolls back and nothing is observable.
	if _, err := tx.ExecContext(ctx, `DELETE FROM absence_records WHERE subject_id = $1`, id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete subject absences: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete subject: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete subject rows affected: %w", err)
	}
	if affected == 0 {
		tx.Rollback() //nolint:errcheck
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete subject: %w", err)
	}
	return nil
}
