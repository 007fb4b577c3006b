package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rosterly/staffing-api/internal/models"
	appErrors "github.com/rosterly/staffing-api/pkg/errors"
	"github.com/rosterly/staffing-api/pkg/export"
)

// ReportFormat names a rendered export format.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ParseReportFormat normalises raw input, defaulting to CSV.
func ParseReportFormat(raw string) (ReportFormat, bool) {
	switch ReportFormat(raw) {
	case "":
		return ReportFormatCSV, true
	case ReportFormatCSV, ReportFormatPDF:
		return ReportFormat(raw), true
	}
	return "", false
}

// ContentType returns the MIME type for the format.
func (f ReportFormat) ContentType() string {
	if f == ReportFormatPDF {
		return "application/pdf"
	}
	return "text/csv"
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type teamSummarySource interface {
	TeamSummary(ctx context.Context, from, to time.Time) (*models.TeamStatsSummary, bool, error)
}

// ReportExportService renders workload summaries for download.
type ReportExportService struct {
	workload teamSummarySource
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
}

// NewReportExportService constructs a ReportExportService.
func NewReportExportService(workload teamSummarySource, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ReportExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportExportService{workload: workload, csv: csv, pdf: pdf, logger: logger}
}

// ExportResult is a rendered download.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// TeamWorkload renders the per-teacher workload table over [from, to].
func (s *ReportExportService) TeamWorkload(ctx context.Context, from, to time.Time, format ReportFormat) (*ExportResult, error) {
	summary, _, err := s.workload.TeamSummary(ctx, from, to)
	if err != nil {
		return nil, err
	}

	headers := []string{"Teacher", "Fixed Hours", "Substitute Hours", "Ad-hoc Hours", "Total Hours", "Classes"}
	rows := make([]map[string]string, 0, len(summary.Teachers))
	for _, stats := range summary.Teachers {
		rows = append(rows, map[string]string{
			"Teacher":          stats.TeacherName,
			"Fixed Hours":      strconv.FormatFloat(stats.FixedHours, 'f', 1, 64),
			"Substitute Hours": strconv.FormatFloat(stats.SubstituteHours, 'f', 1, 64),
			"Ad-hoc Hours":     strconv.FormatFloat(stats.OffsetHours, 'f', 1, 64),
			"Total Hours":      strconv.FormatFloat(stats.TotalHours, 'f', 1, 64),
			"Classes":          strconv.Itoa(stats.FixedCount + stats.SubstituteCount + stats.AdHocCount),
		})
	}
	dataset := export.Dataset{Headers: headers, Rows: rows}

	title := fmt.Sprintf("Teacher workload %s to %s", from.Format(dateLayout), to.Format(dateLayout))
	var payload []byte
	switch format {
	case ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("workload_%s_%s.%s", from.Format("20060102"), to.Format("20060102"), format)
	return &ExportResult{Filename: filename, ContentType: format.ContentType(), Payload: payload}, nil
}
