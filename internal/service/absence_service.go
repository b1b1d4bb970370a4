package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/faltometro/faltometro-api/internal/models"
	"github.com/faltometro/faltometro-api/internal/repository"
	appErrors "github.com/faltometro/faltometro-api/pkg/errors"
)

type absenceRepository interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.AbsenceRecord, error)
	Create(ctx context.Context, record *models.AbsenceRecord) error
	Delete(ctx context.Context, recordID, subjectID string) error
}

// AddAbsenceRequest is the payload for logging a missed class.
type AddAbsenceRequest struct {
	Date string `json:"date"`
}

// AbsenceService owns the absence ledger. All operations pass through the
// subject access gate first, so a record under someone else's subject is
// indistinguishable from a missing one.
type AbsenceService struct {
	repo     absenceRepository
	subjects *SubjectService
	logger   *zap.Logger
}

// NewAbsenceService constructs an AbsenceService.
func NewAbsenceService(repo absenceRepository, subjects *SubjectService, logger *zap.Logger) *AbsenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AbsenceService{repo: repo, subjects: subjects, logger: logger}
}

// Add logs a missed class. The record insert and the counter increment
// commit together; a duplicate (subject, date) pair aborts both.
func (a *AbsenceService) Add(ctx context.Context, userID, subjectID string, req AddAbsenceRequest) (*models.AbsenceRecord, error) {
	if req.Date == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "absence date is required")
	}
	date, err := parseAbsenceDate(req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid absence date")
	}

	if _, err := a.subjects.authorize(ctx, userID, subjectID); err != nil {
		return nil, err
	}

	record := &models.AbsenceRecord{SubjectID: subjectID, Date: date}
	if err := a.repo.Create(ctx, record); err != nil {
		if _, ok := repository.UniqueViolation(err); ok {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an absence is already logged for this date")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to log absence")
	}

	a.subjects.invalidate(ctx, userID)
	return record, nil
}

// List returns the subject's records ordered by date descending.
func (a *AbsenceService) List(ctx context.Context, userID, subjectID string) ([]models.AbsenceRecord, error) {
	if _, err := a.subjects.authorize(ctx, userID, subjectID); err != nil {
		return nil, err
	}

	records, err := a.repo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list absences")
	}
	return records, nil
}

// Remove retracts a logged absence. The record delete and the counter
// decrement commit together.
func (a *AbsenceService) Remove(ctx context.Context, userID, subjectID, recordID string) error {
	if _, err := a.subjects.authorize(ctx, userID, subjectID); err != nil {
		return err
	}

	if err := a.repo.Delete(ctx, recordID, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "absence record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete absence")
	}

	a.subjects.invalidate(ctx, userID)
	return nil
}

// parseAbsenceDate accepts a calendar date, with or without a time part.
// Only the date matters; time-of-day is discarded.
func parseAbsenceDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
