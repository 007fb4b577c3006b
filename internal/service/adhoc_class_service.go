package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rosterly/staffing-api/internal/models"
	"github.com/rosterly/staffing-api/internal/repository"
	appErrors "github.com/rosterly/staffing-api/pkg/errors"
	"github.com/rosterly/staffing-api/pkg/timeutil"
)

type adhocClassRepository interface {
	List(ctx context.Context, filter models.AdHocClassFilter) ([]models.AdHocClass, int, error)
	FindByID(ctx context.Context, id string) (*models.AdHocClass, error)
	Create(ctx context.Context, class *models.AdHocClass) error
	Update(ctx context.Context, class *models.AdHocClass) error
	SetStatus(ctx context.Context, classID string, version int, status models.ClassStatus) error
	ClearAssignment(ctx context.Context, classID string, version int, history []string) error
	Delete(ctx context.Context, id string) error
}

// CreateClassRequest carries the payload for any ad-hoc class kind. Offset
// and supplementary classes reference a subject level; test classes reference
// a bare subject.
type CreateClassRequest struct {
	Kind           string    `json:"kind" validate:"required,oneof=offset supplementary test"`
	ClassName      string    `json:"class_name" validate:"required,max=200"`
	SubjectLevelID *string   `json:"subject_level_id"`
	SubjectID      *string   `json:"subject_id"`
	ScheduledDate  time.Time `json:"scheduled_date" validate:"required"`
	StartTime      string    `json:"start_time" validate:"required"`
	EndTime        string    `json:"end_time" validate:"required"`
	MeetingLink    *string   `json:"meeting_link" validate:"omitempty,url"`
	Notes          *string   `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateClassRequest rewrites mutable class fields; kind is immutable.
type UpdateClassRequest struct {
	ClassName     string    `json:"class_name" validate:"required,max=200"`
	ScheduledDate time.Time `json:"scheduled_date" validate:"required"`
	StartTime     string    `json:"start_time" validate:"required"`
	EndTime       string    `json:"end_time" validate:"required"`
	MeetingLink   *string   `json:"meeting_link" validate:"omitempty,url"`
	Notes         *string   `json:"notes" validate:"omitempty,max=2000"`
}

// AdHocClassService manages the lifecycle of one-off classes. Assignment
// itself lives in the allocation service; this one owns creation, edits and
// the remaining state-machine moves.
type AdHocClassService struct {
	repo      adhocClassRepository
	stats     statsInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdHocClassService constructs an AdHocClassService. stats may be nil.
func NewAdHocClassService(repo adhocClassRepository, stats statsInvalidator, validate *validator.Validate, logger *zap.Logger) *AdHocClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdHocClassService{repo: repo, stats: stats, validator: validate, logger: logger}
}

// List returns classes plus pagination data.
func (s *AdHocClassService) List(ctx context.Context, filter models.AdHocClassFilter) ([]models.AdHocClass, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return classes, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a class by id.
func (s *AdHocClassService) Get(ctx context.Context, id string) (*models.AdHocClass, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// Create registers a class in pending status, awaiting allocation.
func (s *AdHocClassService) Create(ctx context.Context, req CreateClassRequest) (*models.AdHocClass, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	kind := models.ClassKind(req.Kind)
	if err := validateSubjectReference(kind, req.SubjectLevelID, req.SubjectID); err != nil {
		return nil, err
	}
	if err := validateClassWindow(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	class := &models.AdHocClass{
		Kind:           kind,
		ClassName:      strings.TrimSpace(req.ClassName),
		SubjectLevelID: req.SubjectLevelID,
		SubjectID:      req.SubjectID,
		ScheduledDate:  truncateDay(req.ScheduledDate),
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		MeetingLink:    normalizeOptional(req.MeetingLink),
		Notes:          normalizeOptional(req.Notes),
		Status:         models.StatusPending,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	s.invalidate(ctx)
	return class, nil
}

// Update rewrites mutable fields. Terminal classes are immutable, and moving
// the window of an assigned class is rejected so commitments stay honest;
// reallocate or unassign first.
func (s *AdHocClassService) Update(ctx context.Context, id string, req UpdateClassRequest) (*models.AdHocClass, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	class, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if class.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrTerminalStatus, "class is "+string(class.Status))
	}
	if err := validateClassWindow(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	windowMoved := !class.ScheduledDate.Equal(truncateDay(req.ScheduledDate)) ||
		class.StartTime != req.StartTime || class.EndTime != req.EndTime
	if windowMoved && class.Status == models.StatusAssigned {
		return nil, appErrors.Clone(appErrors.ErrConflict, "unassign the class before moving its window")
	}

	class.ClassName = strings.TrimSpace(req.ClassName)
	class.ScheduledDate = truncateDay(req.ScheduledDate)
	class.StartTime = req.StartTime
	class.EndTime = req.EndTime
	class.MeetingLink = normalizeOptional(req.MeetingLink)
	class.Notes = normalizeOptional(req.Notes)
	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	s.invalidate(ctx)
	return class, nil
}

// Complete marks an assigned class as taught.
func (s *AdHocClassService) Complete(ctx context.Context, id string) (*models.AdHocClass, error) {
	return s.transition(ctx, id, models.StatusCompleted)
}

// Cancel abandons a class from any non-terminal status.
func (s *AdHocClassService) Cancel(ctx context.Context, id string) (*models.AdHocClass, error) {
	return s.transition(ctx, id, models.StatusCancelled)
}

// Unassign detaches the current teacher and returns the class to pending.
// The departing teacher stays in the history so reallocation skips them.
func (s *AdHocClassService) Unassign(ctx context.Context, id string) (*models.AdHocClass, error) {
	class, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if class.Status != models.StatusAssigned || class.AssignedTeacherID == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "class has no teacher assigned")
	}
	history := append([]string{}, class.AssignedHistory...)
	if err := s.repo.ClearAssignment(ctx, class.ID, class.Version, history); err != nil {
		if err == repository.ErrVersionConflict {
			return nil, appErrors.Clone(appErrors.ErrConflict, "class changed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unassign class")
	}
	class.AssignedTeacherID = nil
	class.Status = models.StatusPending
	class.Version++
	s.invalidate(ctx)
	return class, nil
}

// Delete removes a pending or cancelled class outright. Assigned and
// completed classes carry workload history and stay.
func (s *AdHocClassService) Delete(ctx context.Context, id string) error {
	class, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if class.Status == models.StatusAssigned || class.Status == models.StatusCompleted {
		return appErrors.Clone(appErrors.ErrConflict, "cancel the class instead of deleting it")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	s.invalidate(ctx)
	return nil
}

func (s *AdHocClassService) transition(ctx context.Context, id string, next models.ClassStatus) (*models.AdHocClass, error) {
	class, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if class.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrTerminalStatus, "class is "+string(class.Status))
	}
	if !class.Status.CanTransition(next) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "cannot move class from "+string(class.Status)+" to "+string(next))
	}
	if err := s.repo.SetStatus(ctx, class.ID, class.Version, next); err != nil {
		if err == repository.ErrVersionConflict {
			return nil, appErrors.Clone(appErrors.ErrConflict, "class changed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class status")
	}
	class.Status = next
	class.Version++
	s.invalidate(ctx)
	return class, nil
}

func (s *AdHocClassService) invalidate(ctx context.Context) {
	if s.stats != nil {
		s.stats.InvalidateStats(ctx)
	}
}

func validateSubjectReference(kind models.ClassKind, levelID, subjectID *string) error {
	hasLevel := levelID != nil && *levelID != ""
	hasSubject := subjectID != nil && *subjectID != ""
	if kind == models.KindTest {
		if !hasSubject {
			return appErrors.Clone(appErrors.ErrValidation, "test classes require a subject")
		}
		return nil
	}
	if !hasLevel {
		return appErrors.Clone(appErrors.ErrValidation, kind.Label()+" requires a subject level")
	}
	return nil
}

func validateClassWindow(startTime, endTime string) error {
	start, err := timeutil.ToMinutes(startTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid start time")
	}
	end, err := timeutil.ToMinutes(endTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid end time")
	}
	if end <= start {
		return appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	return nil
}
