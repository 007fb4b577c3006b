package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rosterly/staffing-api/internal/models"
	appErrors "github.com/rosterly/staffing-api/pkg/errors"
)

type classCreator interface {
	Create(ctx context.Context, req CreateClassRequest) (*models.AdHocClass, error)
}

// ImportRowError records why one spreadsheet row was rejected.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult summarises a bulk class import.
type ImportResult struct {
	Created int              `json:"created"`
	Failed  int              `json:"failed"`
	Errors  []ImportRowError `json:"errors,omitempty"`
}

// ImportService ingests CSV spreadsheets of ad-hoc classes. Expected columns:
// kind, class_name, subject_level_id, subject_id, date, start_time, end_time,
// with an optional notes column. Rows fail individually; one bad row never
// aborts the import.
type ImportService struct {
	classes classCreator
	logger  *zap.Logger
}

// NewImportService constructs an ImportService.
func NewImportService(classes classCreator, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{classes: classes, logger: logger}
}

var importColumns = []string{"kind", "class_name", "subject_level_id", "subject_id", "date", "start_time", "end_time"}

// ImportClasses reads the CSV stream and creates one pending class per valid
// row.
func (s *ImportService) ImportClasses(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "empty or unreadable csv")
	}
	index, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for rowNum := 2; ; rowNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: "malformed row"})
			continue
		}

		req, err := s.rowToRequest(record, index)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		if _, err := s.classes.Create(ctx, *req); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: appErrors.FromError(err).Message})
			continue
		}
		result.Created++
	}

	s.logger.Info("class import finished",
		zap.Int("created", result.Created),
		zap.Int("failed", result.Failed))
	return result, nil
}

func mapHeader(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range importColumns {
		if _, ok := index[required]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "missing column "+required)
		}
	}
	return index, nil
}

func (s *ImportService) rowToRequest(record []string, index map[string]int) (*CreateClassRequest, error) {
	cell := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	date, err := time.Parse(dateLayout, cell("date"))
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", cell("date"))
	}

	req := &CreateClassRequest{
		Kind:          strings.ToLower(cell("kind")),
		ClassName:     cell("class_name"),
		ScheduledDate: date,
		StartTime:     cell("start_time"),
		EndTime:       cell("end_time"),
	}
	if v := cell("subject_level_id"); v != "" {
		req.SubjectLevelID = &v
	}
	if v := cell("subject_id"); v != "" {
		req.SubjectID = &v
	}
	if v := cell("notes"); v != "" {
		req.Notes = &v
	}
	return req, nil
}
