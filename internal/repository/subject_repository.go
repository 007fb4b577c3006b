package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rosterly/staffing-api/internal/models"
)

// SubjectRepository manages subjects and their ordered levels.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs a SubjectRepository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns subjects matching the filter with total count.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	base := "FROM subjects WHERE 1=1"
	var args []interface{}
	if filter.Search != "" {
		base += fmt.Sprintf(" AND (LOWER(name) LIKE $%d OR LOWER(code) LIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, code, name, created_at, updated_at %s ORDER BY code LIMIT %d OFFSET %d", base, size, offset)
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subjects: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}
	return subjects, total, nil
}

// FindByID fetches a subject by ID.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, code, name, created_at, updated_at FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// Create inserts a subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = now
	}
	subject.UpdatedAt = now
	const query = `INSERT INTO subjects (id, code, name, created_at, updated_at)
		VALUES (:id, :code, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Update modifies a subject.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	subject.UpdatedAt = time.Now().UTC()
	const query = `UPDATE subjects SET code = :code, name = :name, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return nil
}

// ListLevels returns the ordered levels of a subject.
func (r *SubjectRepository) ListLevels(ctx context.Context, subjectID string) ([]models.SubjectLevel, error) {
	const query = `SELECT id, subject_id, level, name, created_at FROM subject_levels WHERE subject_id = $1 ORDER BY level`
	var levels []models.SubjectLevel
	if err := r.db.SelectContext(ctx, &levels, query, subjectID); err != nil {
		return nil, fmt.Errorf("list subject levels: %w", err)
	}
	return levels, nil
}

// FindLevelByID fetches one subject level.
func (r *SubjectRepository) FindLevelByID(ctx context.Context, id string) (*models.SubjectLevel, error) {
	const query = `SELECT id, subject_id, level, name, created_at FROM subject_levels WHERE id = $1`
	var level models.SubjectLevel
	if err := r.db.GetContext(ctx, &level, query, id); err != nil {
		return nil, err
	}
	return &level, nil
}

// CreateLevel appends a level to a subject.
func (r *SubjectRepository) CreateLevel(ctx context.Context, level *models.SubjectLevel) error {
	if level.ID == "" {
		level.ID = uuid.NewString()
	}
	if level.CreatedAt.IsZero() {
		level.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO subject_levels (id, subject_id, level, name, created_at)
		VALUES (:id, :subject_id, :level, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, level); err != nil {
		return fmt.Errorf("create subject level: %w", err)
	}
	return nil
}
