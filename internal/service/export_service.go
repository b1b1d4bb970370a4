package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	appErrors "github.com/faltometro/faltometro-api/pkg/errors"
	"github.com/faltometro/faltometro-api/pkg/export"
)

// ExportFormat names a supported dashboard export format.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered dashboard export.
type ExportFile struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders the user's attendance dashboard as a downloadable
// file. The dataset is the same annotated list the dashboard shows.
type ExportService struct {
	subjects *SubjectService
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(subjects *SubjectService, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{subjects: subjects, csv: csv, pdf: pdf, logger: logger}
}

// Generate renders the user's subject list in the requested format.
func (s *ExportService) Generate(ctx context.Context, userID string, format ExportFormat) (*ExportFile, error) {
	views, err := s.subjects.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	headers := []string{"Subject", "Type", "Workload (h)", "Class duration (h)", "Total classes", "Absences", "Hours missed", "Remaining hours", "Risk"}
	rows := make([]map[string]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, map[string]string{
			"Subject":            v.Name,
			"Type":               v.DurationType,
			"Workload (h)":       formatHours(v.TotalWorkloadHours),
			"Class duration (h)": formatHours(v.ClassDurationHours),
			"Total classes":      strconv.Itoa(v.TotalClasses),
			"Absences":           strconv.Itoa(v.AbsenceCount),
			"Hours missed":       formatHours(v.TotalHoursMissed),
			"Remaining hours":    formatHours(v.RemainingAbsenceHours),
			"Risk":               v.RiskTier,
		})
	}
	dataset := export.Dataset{Headers: headers, Rows: rows}

	switch format {
	case ExportFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportFile{Content: content, ContentType: "text/csv", Filename: "attendance.csv"}, nil
	case ExportFormatPDF:
		content, err := s.pdf.Render(dataset, "Attendance report")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportFile{Content: content, ContentType: "application/pdf", Filename: "attendance.pdf"}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func formatHours(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
