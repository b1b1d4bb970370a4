package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faltometro/faltometro-api/internal/models"
)

func TestAbsenceRepositoryCreateIncrementsCounter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAbsenceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO absence_records").
		WithArgs(sqlmock.AnyArg(), "subject-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE subjects SET absence_count = absence_count + 1")).
		WithArgs("subject-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	record := &models.AbsenceRecord{
		SubjectID: "subject-1",
		Date:      time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), record))
	assert.NotEmpty(t, record.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAbsenceRepositoryCreateDuplicateDateRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAbsenceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO absence_records").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "absence_records_subject_id_date_key"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.AbsenceRecord{
		SubjectID: "subject-1",
		Date:      time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	constraint, ok := UniqueViolation(err)
	require.True(t, ok)
	assert.Equal(t, "absence_records_subject_id_date_key", constraint)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAbsenceRepositoryDeleteDecrementsCounter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAbsenceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM absence_records WHERE id = $1 AND subject_id = $2")).
		WithArgs("record-1", "subject-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE subjects SET absence_count = absence_count - 1")).
		WithArgs("subject-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "record-1", "subject-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAbsenceRepositoryDeleteMissingRecordRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAbsenceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM absence_records WHERE id = $1 AND subject_id = $2")).
		WithArgs("record-9", "subject-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "record-9", "subject-1")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAbsenceRepositoryListBySubject(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAbsenceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "subject_id", "date", "created_at"}).
		AddRow("record-2", "subject-1", time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC), time.Now()).
		AddRow("record-1", "subject-1", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), time.Now())
	mock.ExpectQuery("FROM absence_records\\s+WHERE subject_id = \\$1 ORDER BY date DESC").
		WithArgs("subject-1").
		WillReturnRows(rows)

	records, err := repo.ListBySubject(context.Background(), "subject-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].Date.After(records[1].Date))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAbsenceRepositoryCountBySubject(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAbsenceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM absence_records WHERE subject_id = $1")).
		WithArgs("subject-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountBySubject(context.Background(), "subject-1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
