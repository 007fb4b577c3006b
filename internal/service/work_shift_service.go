package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rosterly/staffing-api/internal/models"
	appErrors "github.com/rosterly/staffing-api/pkg/errors"
	"github.com/rosterly/staffing-api/pkg/timeutil"
)

type workShiftRepository interface {
	List(ctx context.Context) ([]models.WorkShift, error)
	FindByID(ctx context.Context, id string) (*models.WorkShift, error)
	Create(ctx context.Context, shift *models.WorkShift) error
	Update(ctx context.Context, shift *models.WorkShift) error
	Delete(ctx context.Context, id string) error
}

// WorkShiftRequest carries create and update payloads for shifts.
type WorkShiftRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
}

// WorkShiftService manages the display buckets a day is grouped into.
type WorkShiftService struct {
	repo      workShiftRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWorkShiftService constructs a WorkShiftService.
func NewWorkShiftService(repo workShiftRepository, validate *validator.Validate, logger *zap.Logger) *WorkShiftService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkShiftService{repo: repo, validator: validate, logger: logger}
}

// List returns all shifts in display order.
func (s *WorkShiftService) List(ctx context.Context) ([]models.WorkShift, error) {
	shifts, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list work shifts")
	}
	return shifts, nil
}

// Create registers a shift.
func (s *WorkShiftService) Create(ctx context.Context, req WorkShiftRequest) (*models.WorkShift, error) {
	shift, err := s.buildShift(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, shift); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create work shift")
	}
	return shift, nil
}

// Update rewrites a shift.
func (s *WorkShiftService) Update(ctx context.Context, id string, req WorkShiftRequest) (*models.WorkShift, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "work shift not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load work shift")
	}
	shift, err := s.buildShift(req)
	if err != nil {
		return nil, err
	}
	shift.ID = existing.ID
	shift.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, shift); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update work shift")
	}
	return shift, nil
}

// Delete removes a shift.
func (s *WorkShiftService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "work shift not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete work shift")
	}
	return nil
}

func (s *WorkShiftService) buildShift(req WorkShiftRequest) (*models.WorkShift, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid work shift payload")
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
	return &models.WorkShift{
		Name:      strings.TrimSpace(req.Name),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		SortOrder: req.SortOrder,
	}, nil
}
