package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/faltometro/faltometro-api/internal/models"
	"github.com/faltometro/faltometro-api/internal/repository"
	appErrors "github.com/faltometro/faltometro-api/pkg/errors"
)

type subjectRepository interface {
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	ListByUser(ctx context.Context, userID string) ([]models.Subject, error)
	FindByIDForUser(ctx context.Context, id, userID string) (*models.Subject, error)
	DeleteCascade(ctx context.Context, id, userID string) error
}

// CreateSubjectRequest is the payload for registering a subject.
type CreateSubjectRequest struct {
	Name               string  `json:"name" validate:"required"`
	Type               string  `json:"type"`
	TotalWorkloadHours float64 `json:"totalWorkloadHours" validate:"required,gt=0"`
	ClassDurationHours float64 `json:"classDurationHours" validate:"required,gt=0"`
}

// UpdateSubjectRequest is the payload for editing a subject.
type UpdateSubjectRequest struct {
	Name               string  `json:"name" validate:"required"`
	Type               string  `json:"type"`
	TotalWorkloadHours float64 `json:"totalWorkloadHours" validate:"required,gt=0"`
	ClassDurationHours float64 `json:"classDurationHours" validate:"required,gt=0"`
}

// SubjectService owns the subject ledger. Every call takes the
// authenticated user's ID explicitly; nothing is derived from ambient
// request state.
type SubjectService struct {
	repo      subjectRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	maxShare  float64
}

// NewSubjectService constructs a SubjectService.
func NewSubjectService(repo subjectRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, maxShare float64) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, cache: cache, validator: validate, logger: logger, maxShare: maxShare}
}

// Create registers a subject for the user. The per-user name uniqueness
// is enforced by the schema and mapped to a conflict here.
func (s *SubjectService) Create(ctx context.Context, userID string, req CreateSubjectRequest) (*models.SubjectView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "name, total workload and class duration are required")
	}

	durationType := req.Type
	if durationType == "" {
		durationType = models.DurationTypeDefault
	}

	subject := &models.Subject{
		UserID:             userID,
		Name:               req.Name,
		DurationType:       durationType,
		TotalWorkloadHours: req.TotalWorkloadHours,
		ClassDurationHours: req.ClassDurationHours,
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		if _, ok := repository.UniqueViolation(err); ok {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a subject with this name already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}

	s.invalidate(ctx, userID)

	view := subject.Annotate(s.maxShare)
	return &view, nil
}

// Update edits a subject owned by the user. Missing and foreign subjects
// are indistinguishable to the caller.
func (s *SubjectService) Update(ctx context.Context, userID, subjectID string, req UpdateSubjectRequest) (*models.SubjectView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "name, total workload and class duration are required")
	}

	subject, err := s.authorize(ctx, userID, subjectID)
	if err != nil {
		return nil, err
	}

	subject.Name = req.Name
	if req.Type != "" {
		subject.DurationType = req.Type
	}
	subject.TotalWorkloadHours = req.TotalWorkloadHours
	subject.ClassDurationHours = req.ClassDurationHours

	if err := s.repo.Update(ctx, subject); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		if _, ok := repository.UniqueViolation(err); ok {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a subject with this name already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}

	s.invalidate(ctx, userID)

	view := subject.Annotate(s.maxShare)
	return &view, nil
}

// List returns the user's subjects in insertion order, each annotated
// with the derived attendance figures.
func (s *SubjectService) List(ctx context.Context, userID string) ([]models.SubjectView, error) {
	key := SubjectListKey(userID)
	if s.cache.Enabled() {
		var cached []models.SubjectView
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	subjects, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}

	views := make([]models.SubjectView, 0, len(subjects))
	for _, subject := range subjects {
		views = append(views, subject.Annotate(s.maxShare))
	}

	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, key, views, 0)
	}
	return views, nil
}

// Delete removes the subject together with all of its absence records.
func (s *SubjectService) Delete(ctx context.Context, userID, subjectID string) error {
	if err := s.repo.DeleteCascade(ctx, subjectID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}

	s.invalidate(ctx, userID)
	return nil
}

// authorize is the access gate: a subject that exists but belongs to a
// different user yields the same NOT_FOUND as one that never existed.
func (s *SubjectService) authorize(ctx context.Context, userID, subjectID string) (*models.Subject, error) {
	subject, err := s.repo.FindByIDForUser(ctx, subjectID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

func (s *SubjectService) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, SubjectListKey(userID)); err != nil {
		s.logger.Warn("subject cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}
