package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rosterly/staffing-api/internal/models"
	"github.com/rosterly/staffing-api/internal/repository"
	appErrors "github.com/rosterly/staffing-api/pkg/errors"
	"github.com/rosterly/staffing-api/pkg/timeutil"
)

type fixedScheduleRepository interface {
	scheduleSource
	Create(ctx context.Context, schedule *models.FixedSchedule) error
	Update(ctx context.Context, schedule *models.FixedSchedule) error
	Deactivate(ctx context.Context, id string) error
	FindLeaveByID(ctx context.Context, id string) (*models.FixedScheduleLeave, error)
	CreateLeave(ctx context.Context, leave *models.FixedScheduleLeave) error
	DeleteLeave(ctx context.Context, id string) error
}

type scheduleTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type statsInvalidator interface {
	InvalidateStats(ctx context.Context)
}

type substituteNotifier interface {
	SubstituteRequested(substitute *models.Teacher, schedule *models.FixedSchedule, date time.Time)
}

// FixedScheduleRequest carries create and update payloads for schedules.
type FixedScheduleRequest struct {
	TeacherID      string     `json:"teacher_id" validate:"required"`
	SubjectLevelID string     `json:"subject_level_id" validate:"required"`
	DayOfWeek      string     `json:"day_of_week" validate:"required"`
	StartTime      string     `json:"start_time" validate:"required"`
	EndTime        string     `json:"end_time" validate:"required"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	Role           string     `json:"role" validate:"required,oneof=teacher tutor"`
}

// LeaveRequest records a leave against one occurrence, optionally naming a
// substitute to cover it.
type LeaveRequest struct {
	Date                time.Time `json:"date" validate:"required"`
	Reason              *string   `json:"reason" validate:"omitempty,max=500"`
	SubstituteTeacherID *string   `json:"substitute_teacher_id"`
}

// FixedScheduleService manages recurring schedules and their leaves.
type FixedScheduleService struct {
	repo      fixedScheduleRepository
	teachers  scheduleTeacherReader
	windows   windowChecker
	stats     statsInvalidator
	notifier  substituteNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFixedScheduleService constructs a FixedScheduleService. stats and
// notifier may be nil.
func NewFixedScheduleService(repo fixedScheduleRepository, teachers scheduleTeacherReader, windows windowChecker, stats statsInvalidator, notifier substituteNotifier, validate *validator.Validate, logger *zap.Logger) *FixedScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FixedScheduleService{repo: repo, teachers: teachers, windows: windows, stats: stats, notifier: notifier, validator: validate, logger: logger}
}

// List returns schedules matching the filter.
func (s *FixedScheduleService) List(ctx context.Context, filter models.FixedScheduleFilter) ([]models.FixedSchedule, error) {
	schedules, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	return schedules, nil
}

// Get returns a schedule by id.
func (s *FixedScheduleService) Get(ctx context.Context, id string) (*models.FixedSchedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return schedule, nil
}

// Create registers a recurring schedule after validating its shape and the
// teacher's availability on the weekday window.
func (s *FixedScheduleService) Create(ctx context.Context, req FixedScheduleRequest) (*models.FixedSchedule, error) {
	schedule, err := s.buildSchedule(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	s.invalidate(ctx)
	return schedule, nil
}

// Update rewrites a schedule's recurring shape.
func (s *FixedScheduleService) Update(ctx context.Context, id string, req FixedScheduleRequest) (*models.FixedSchedule, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.buildSchedule(ctx, req)
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	updated.IsActive = existing.IsActive
	updated.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}
	s.invalidate(ctx)
	return updated, nil
}

// Deactivate soft disables a schedule so new occurrences stop being emitted.
func (s *FixedScheduleService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate schedule")
	}
	s.invalidate(ctx)
	return nil
}

// Occurrences expands a schedule's concrete dates over [from, to], leave
// days excluded.
func (s *FixedScheduleService) Occurrences(ctx context.Context, id string, from, to time.Time) ([]models.Occurrence, error) {
	schedule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	leaves, err := s.repo.ListLeaves(ctx, models.LeaveFilter{FixedScheduleID: id, DateFrom: &from, DateTo: &to})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leaves")
	}
	occurrences, err := ExpandOccurrences([]models.FixedSchedule{*schedule}, leaves, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to expand occurrences")
	}
	return occurrences, nil
}

// ListLeaves returns leave records matching the filter.
func (s *FixedScheduleService) ListLeaves(ctx context.Context, filter models.LeaveFilter) ([]models.FixedScheduleLeave, error) {
	leaves, err := s.repo.ListLeaves(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leaves")
	}
	return leaves, nil
}

// CreateLeave cancels one occurrence. The date must land on the schedule's
// weekday inside its validity window, a named substitute must be an active
// different teacher who is free in that window, and the unique constraint
// keeps the operation idempotent per (schedule, date).
func (s *FixedScheduleService) CreateLeave(ctx context.Context, scheduleID string, req LeaveRequest) (*models.FixedScheduleLeave, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}
	schedule, err := s.Get(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	date := truncateDay(req.Date)
	if weekdayNames[date.Weekday()] != schedule.DayOfWeek {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date does not fall on the schedule's weekday")
	}
	if schedule.StartDate != nil && date.Before(truncateDay(*schedule.StartDate)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date is before the schedule starts")
	}
	if schedule.EndDate != nil && date.After(truncateDay(*schedule.EndDate)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date is after the schedule ends")
	}

	var substitute *models.Teacher
	if req.SubstituteTeacherID != nil && *req.SubstituteTeacherID != "" {
		substitute, err = s.vetSubstitute(ctx, schedule, *req.SubstituteTeacherID, date)
		if err != nil {
			return nil, err
		}
	}

	leave := &models.FixedScheduleLeave{
		FixedScheduleID:     schedule.ID,
		Date:                date,
		Reason:              normalizeOptional(req.Reason),
		SubstituteTeacherID: req.SubstituteTeacherID,
	}
	if err := s.repo.CreateLeave(ctx, leave); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "leave already recorded for that date")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create leave")
	}

	s.invalidate(ctx)
	if substitute != nil && s.notifier != nil {
		s.notifier.SubstituteRequested(substitute, schedule, date)
	}
	return leave, nil
}

// DeleteLeave removes a leave, restoring the occurrence to the original
// teacher.
func (s *FixedScheduleService) DeleteLeave(ctx context.Context, leaveID string) error {
	if err := s.repo.DeleteLeave(ctx, leaveID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "leave not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete leave")
	}
	s.invalidate(ctx)
	return nil
}

func (s *FixedScheduleService) buildSchedule(ctx context.Context, req FixedScheduleRequest) (*models.FixedSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	day, ok := models.ParseWeekday(req.DayOfWeek)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid day of week")
	}
	start, err := timeutil.ToMinutes(req.StartTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start time")
	}
	end, err := timeutil.ToMinutes(req.EndTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end time")
	}
	if end <= start {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must not precede start date")
	}

	teacher, err := s.teachers.FindByID(ctx, req.TeacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if !teacher.Active() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher is not active")
	}

	return &models.FixedSchedule{
		TeacherID:      teacher.ID,
		SubjectLevelID: req.SubjectLevelID,
		DayOfWeek:      day,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Role:           models.ScheduleRole(req.Role),
		IsActive:       true,
	}, nil
}

func (s *FixedScheduleService) vetSubstitute(ctx context.Context, schedule *models.FixedSchedule, substituteID string, date time.Time) (*models.Teacher, error) {
	if substituteID == schedule.TeacherID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "substitute must differ from the scheduled teacher")
	}
	substitute, err := s.teachers.FindByID(ctx, substituteID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "substitute teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load substitute")
	}
	if !substitute.Active() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "substitute is not active")
	}
	free, err := s.windows.IsWindowFree(ctx, substitute.ID, date, schedule.StartTime, schedule.EndTime, "")
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, appErrors.Clone(appErrors.ErrConflict, "substitute is busy in that window")
	}
	return substitute, nil
}

func (s *FixedScheduleService) invalidate(ctx context.Context) {
	if s.stats != nil {
		s.stats.InvalidateStats(ctx)
	}
}
