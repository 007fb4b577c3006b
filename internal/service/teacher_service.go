package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rosterly/staffing-api/internal/models"
	appErrors "github.com/rosterly/staffing-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	SetStatus(ctx context.Context, id string, status models.TeacherStatus) error
}

type teacherLevelRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherLevel, error)
	Exists(ctx context.Context, teacherID, subjectLevelID string) (bool, error)
	Create(ctx context.Context, level *models.TeacherLevel) error
	Delete(ctx context.Context, teacherID, subjectLevelID string) error
}

// CreateTeacherRequest represents payload for creating teachers.
type CreateTeacherRequest struct {
	FullName         string  `json:"full_name" validate:"required"`
	Email            string  `json:"email" validate:"required,email"`
	Phone            *string `json:"phone" validate:"omitempty,max=50"`
	EmploymentRole   string  `json:"employment_role" validate:"required,oneof=fulltime parttime"`
	MaxOffsetClasses int     `json:"max_offset_classes" validate:"gte=0"`
}

// UpdateTeacherRequest represents payload for updating teachers.
type UpdateTeacherRequest struct {
	FullName         string  `json:"full_name" validate:"required"`
	Email            string  `json:"email" validate:"required,email"`
	Phone            *string `json:"phone" validate:"omitempty,max=50"`
	EmploymentRole   string  `json:"employment_role" validate:"required,oneof=fulltime parttime"`
	MaxOffsetClasses int     `json:"max_offset_classes" validate:"gte=0"`
	Status           *string `json:"status" validate:"omitempty,oneof=active inactive on_leave"`
}

// QualificationRequest attaches a teacher to a subject level.
type QualificationRequest struct {
	SubjectLevelID string  `json:"subject_level_id" validate:"required"`
	Certifications *string `json:"certifications" validate:"omitempty,max=1000"`
}

// TeacherService orchestrates teacher and qualification operations.
type TeacherService struct {
	repo      teacherRepository
	levels    teacherLevelRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, levels teacherLevelRepository, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, levels: levels, validator: validate, logger: logger}
}

// List returns teachers plus pagination data.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return teachers, pagination, nil
}

// Get returns a teacher by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Create registers a new teacher record in active status.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	if err := s.ensureUniqueEmail(ctx, req.Email, ""); err != nil {
		return nil, err
	}

	teacher := &models.Teacher{
		FullName:         strings.TrimSpace(req.FullName),
		Email:            strings.TrimSpace(req.Email),
		Phone:            normalizeOptional(req.Phone),
		EmploymentRole:   models.EmploymentRole(req.EmploymentRole),
		Status:           models.TeacherActive,
		MaxOffsetClasses: req.MaxOffsetClasses,
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	return teacher, nil
}

// Update modifies an existing teacher.
func (s *TeacherService) Update(ctx context.Context, id string, req UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	teacher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueEmail(ctx, req.Email, id); err != nil {
		return nil, err
	}

	teacher.FullName = strings.TrimSpace(req.FullName)
	teacher.Email = strings.TrimSpace(req.Email)
	teacher.Phone = normalizeOptional(req.Phone)
	teacher.EmploymentRole = models.EmploymentRole(req.EmploymentRole)
	teacher.MaxOffsetClasses = req.MaxOffsetClasses
	if req.Status != nil {
		teacher.Status = models.TeacherStatus(*req.Status)
	}

	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	return teacher, nil
}

// SetStatus switches a teacher's lifecycle state. Records are never hard
// deleted; history keeps pointing at them.
func (s *TeacherService) SetStatus(ctx context.Context, id string, status models.TeacherStatus) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set teacher status")
	}
	return nil
}

// Qualifications lists the subject levels a teacher may teach.
func (s *TeacherService) Qualifications(ctx context.Context, teacherID string) ([]models.TeacherLevel, error) {
	if _, err := s.Get(ctx, teacherID); err != nil {
		return nil, err
	}
	levels, err := s.levels.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list qualifications")
	}
	return levels, nil
}

// AddQualification attaches a subject level to a teacher.
func (s *TeacherService) AddQualification(ctx context.Context, teacherID string, req QualificationRequest) (*models.TeacherLevel, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid qualification payload")
	}
	if _, err := s.Get(ctx, teacherID); err != nil {
		return nil, err
	}
	exists, err := s.levels.Exists(ctx, teacherID, req.SubjectLevelID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check qualification")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "qualification already present")
	}

	level := &models.TeacherLevel{
		TeacherID:      teacherID,
		SubjectLevelID: req.SubjectLevelID,
		Certifications: normalizeOptional(req.Certifications),
	}
	if err := s.levels.Create(ctx, level); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add qualification")
	}
	return level, nil
}

// RemoveQualification detaches a subject level from a teacher.
func (s *TeacherService) RemoveQualification(ctx context.Context, teacherID, subjectLevelID string) error {
	if err := s.levels.Delete(ctx, teacherID, subjectLevelID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "qualification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove qualification")
	}
	return nil
}

func (s *TeacherService) ensureUniqueEmail(ctx context.Context, email, excludeID string) error {
	exists, err := s.repo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "email already used")
	}
	return nil
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
