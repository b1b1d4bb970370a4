package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/faltometro/faltometro-api/pkg/errors"
)

func newExportFixture(t *testing.T) *ExportService {
	t.Helper()
	subjectRepo := newMockSubjectRepo()
	subjectService := newSubjectService(subjectRepo)
	svc := NewExportService(subjectService, nil, nil, nil)

	created, err := subjectService.Create(context.Background(), "user-1", CreateSubjectRequest{
		Name:               "Cálculo I",
		TotalWorkloadHours: 60,
		ClassDurationHours: 2,
	})
	require.NoError(t, err)
	subjectRepo.subjects[created.ID].AbsenceCount = 3
	return svc
}

func TestExportServiceGenerateCSV(t *testing.T) {
	svc := newExportFixture(t)

	file, err := svc.Generate(context.Background(), "user-1", ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "attendance.csv", file.Filename)

	body := string(file.Content)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Subject")
	assert.Contains(t, lines[1], "Cálculo I")
	assert.Contains(t, lines[1], "30") // total classes
	assert.Contains(t, lines[1], "BAIXO RISCO")
}

func TestExportServiceGeneratePDF(t *testing.T) {
	svc := newExportFixture(t)

	file, err := svc.Generate(context.Background(), "user-1", ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Content), "%PDF"))
}

func TestExportServiceGenerateUnsupportedFormat(t *testing.T) {
	svc := newExportFixture(t)

	_, err := svc.Generate(context.Background(), "user-1", ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceEmptyDashboard(t *testing.T) {
	subjectService := newSubjectService(newMockSubjectRepo())
	svc := NewExportService(subjectService, nil, nil, nil)

	file, err := svc.Generate(context.Background(), "user-9", ExportFormatCSV)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(file.Content)), "\n")
	assert.Len(t, lines, 1) // headers only
}
