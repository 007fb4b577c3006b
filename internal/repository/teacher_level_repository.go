package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rosterly/staffing-api/internal/models"
)

// TeacherLevelRepository manages teacher qualification links.
type TeacherLevelRepository struct {
	db *sqlx.DB
}

// NewTeacherLevelRepository constructs a TeacherLevelRepository.
func NewTeacherLevelRepository(db *sqlx.DB) *TeacherLevelRepository {
	return &TeacherLevelRepository{db: db}
}

// ListByTeacher returns qualification links for one teacher.
func (r *TeacherLevelRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherLevel, error) {
	const query = `SELECT id, teacher_id, subject_level_id, certifications, created_at FROM teacher_levels WHERE teacher_id = $1 ORDER BY created_at`
	var levels []models.TeacherLevel
	if err := r.db.SelectContext(ctx, &levels, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher levels: %w", err)
	}
	return levels, nil
}

// ListQualifiedTeacherIDs returns the ids of teachers qualified for the
// subject level, the first allocation filter.
func (r *TeacherLevelRepository) ListQualifiedTeacherIDs(ctx context.Context, subjectLevelID string) ([]string, error) {
	const query = `SELECT teacher_id FROM teacher_levels WHERE subject_level_id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, subjectLevelID); err != nil {
		return nil, fmt.Errorf("list qualified teachers: %w", err)
	}
	return ids, nil
}

// ListQualifiedTeacherIDsBySubject matches any level of the subject, used for
// test-kind classes that reference a subject without a level.
func (r *TeacherLevelRepository) ListQualifiedTeacherIDsBySubject(ctx context.Context, subjectID string) ([]string, error) {
	const query = `SELECT DISTINCT tl.teacher_id FROM teacher_levels tl
		JOIN subject_levels sl ON sl.id = tl.subject_level_id
		WHERE sl.subject_id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, subjectID); err != nil {
		return nil, fmt.Errorf("list qualified teachers by subject: %w", err)
	}
	return ids, nil
}

// Exists checks for an existing qualification link.
func (r *TeacherLevelRepository) Exists(ctx context.Context, teacherID, subjectLevelID string) (bool, error) {
	const query = `SELECT 1 FROM teacher_levels WHERE teacher_id = $1 AND subject_level_id = $2 LIMIT 1`
	var one int
	if err := r.db.GetContext(ctx, &one, query, teacherID, subjectLevelID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teacher level: %w", err)
	}
	return true, nil
}

// Create inserts a qualification link.
func (r *TeacherLevelRepository) Create(ctx context.Context, level *models.TeacherLevel) error {
	if level.ID == "" {
		level.ID = uuid.NewString()
	}
	if level.CreatedAt.IsZero() {
		level.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teacher_levels (id, teacher_id, subject_level_id, certifications, created_at)
		VALUES (:id, :teacher_id, :subject_level_id, :certifications, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, level); err != nil {
		return fmt.Errorf("create teacher level: %w", err)
	}
	return nil
}

// Delete removes a qualification link.
func (r *TeacherLevelRepository) Delete(ctx context.Context, teacherID, levelID string) error {
	const query = `DELETE FROM teacher_levels WHERE id = $1 AND teacher_id = $2`
	result, err := r.db.ExecContext(ctx, query, levelID, teacherID)
	if err != nil {
		return fmt.Errorf("delete teacher level: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
