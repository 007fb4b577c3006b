package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rosterly/staffing-api/internal/models"
)

type fakeTeamSummarySource struct {
	summary *models.TeamStatsSummary
}

func (f *fakeTeamSummarySource) TeamSummary(ctx context.Context, from, to time.Time) (*models.TeamStatsSummary, bool, error) {
	return f.summary, false, nil
}

func TestParseReportFormat(t *testing.T) {
	format, ok := ParseReportFormat("")
	require.True(t, ok)
	assert.Equal(t, ReportFormatCSV, format)

	format, ok = ParseReportFormat("pdf")
	require.True(t, ok)
	assert.Equal(t, ReportFormatPDF, format)

	_, ok = ParseReportFormat("xlsx")
	assert.False(t, ok)
}

func TestTeamWorkloadCSV(t *testing.T) {
	source := &fakeTeamSummarySource{summary: &models.TeamStatsSummary{
		Teachers: []models.TeacherStats{
			{TeacherID: "t1", TeacherName: "Jordan Smith", FixedHours: 8.0, SubstituteHours: 1.0, OffsetHours: 1.5, TotalHours: 10.5, FixedCount: 4, SubstituteCount: 1, AdHocCount: 1},
		},
	}}
	svc := NewReportExportService(source, nil, nil, zap.NewNop())

	result, err := svc.TeamWorkload(context.Background(), day("2026-06-01"), day("2026-06-30"), ReportFormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "workload_20260601_20260630.csv", result.Filename)
	assert.Equal(t, "text/csv", result.ContentType)

	normalized := strings.ReplaceAll(string(result.Payload), "\r\n", "\n")
	lines := strings.Split(strings.TrimSpace(normalized), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Teacher,Fixed Hours,Substitute Hours,Ad-hoc Hours,Total Hours,Classes", lines[0])
	assert.Equal(t, "Jordan Smith,8.0,1.0,1.5,10.5,6", lines[1])
}

func TestTeamWorkloadPDF(t *testing.T) {
	source := &fakeTeamSummarySource{summary: &models.TeamStatsSummary{}}
	svc := NewReportExportService(source, nil, nil, zap.NewNop())

	result, err := svc.TeamWorkload(context.Background(), day("2026-06-01"), day("2026-06-30"), ReportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.NotEmpty(t, result.Payload)
}
