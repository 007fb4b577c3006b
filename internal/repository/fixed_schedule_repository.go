package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/rosterly/staffing-api/internal/models"
)

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

// IsUniqueViolation reports whether the error stems from a unique constraint.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// FixedScheduleRepository manages recurring schedules and their leave
// exception records.
type FixedScheduleRepository struct {
	db *sqlx.DB
}

// NewFixedScheduleRepository constructs a FixedScheduleRepository.
func NewFixedScheduleRepository(db *sqlx.DB) *FixedScheduleRepository {
	return &FixedScheduleRepository{db: db}
}

const fixedScheduleColumns = "id, teacher_id, subject_level_id, day_of_week, start_time, end_time, start_date, end_date, role, is_active, created_at, updated_at"

// List returns schedules matching the filter.
func (r *FixedScheduleRepository) List(ctx context.Context, filter models.FixedScheduleFilter) ([]models.FixedSchedule, error) {
	base := "FROM fixed_schedules WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.SubjectLevelID != "" {
		conditions = append(conditions, fmt.Sprintf("subject_level_id = $%d", len(args)+1))
		args = append(args, filter.SubjectLevelID)
	}
	if filter.DayOfWeek != nil {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, *filter.DayOfWeek)
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "is_active = TRUE")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY day_of_week, start_time", fixedScheduleColumns, base)
	var schedules []models.FixedSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("list fixed schedules: %w", err)
	}
	return schedules, nil
}

// FindByID fetches one schedule.
func (r *FixedScheduleRepository) FindByID(ctx context.Context, id string) (*models.FixedSchedule, error) {
	query := fmt.Sprintf("SELECT %s FROM fixed_schedules WHERE id = $1", fixedScheduleColumns)
	var schedule models.FixedSchedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// Create inserts a schedule.
func (r *FixedScheduleRepository) Create(ctx context.Context, schedule *models.FixedSchedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now
	const query = `INSERT INTO fixed_schedules (id, teacher_id, subject_level_id, day_of_week, start_time, end_time, start_date, end_date, role, is_active, created_at, updated_at)
		VALUES (:id, :teacher_id, :subject_level_id, :day_of_week, :start_time, :end_time, :start_date, :end_date, :role, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create fixed schedule: %w", err)
	}
	return nil
}

// Update modifies a schedule.
func (r *FixedScheduleRepository) Update(ctx context.Context, schedule *models.FixedSchedule) error {
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE fixed_schedules SET subject_level_id = :subject_level_id, day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, start_date = :start_date, end_date = :end_date, role = :role, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("update fixed schedule: %w", err)
	}
	return nil
}

// Deactivate soft-disables a schedule, preserving historical occurrences.
func (r *FixedScheduleRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE fixed_schedules SET is_active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate fixed schedule: %w", err)
	}
	return nil
}

// Delete removes a schedule that never produced occurrences.
func (r *FixedScheduleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM fixed_schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete fixed schedule: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const leaveColumns = "id, fixed_schedule_id, date, reason, substitute_teacher_id, created_at"

// ListLeaves returns leave records matching the filter.
func (r *FixedScheduleRepository) ListLeaves(ctx context.Context, filter models.LeaveFilter) ([]models.FixedScheduleLeave, error) {
	base := "FROM fixed_schedule_leaves l WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.FixedScheduleID != "" {
		conditions = append(conditions, fmt.Sprintf("l.fixed_schedule_id = $%d", len(args)+1))
		args = append(args, filter.FixedScheduleID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("l.fixed_schedule_id IN (SELECT id FROM fixed_schedules WHERE teacher_id = $%d)", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.SubstituteTeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("l.substitute_teacher_id = $%d", len(args)+1))
		args = append(args, filter.SubstituteTeacherID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("l.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("l.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT l.id, l.fixed_schedule_id, l.date, l.reason, l.substitute_teacher_id, l.created_at %s ORDER BY l.date", base)
	var leaves []models.FixedScheduleLeave
	if err := r.db.SelectContext(ctx, &leaves, query, args...); err != nil {
		return nil, fmt.Errorf("list leaves: %w", err)
	}
	return leaves, nil
}

// FindLeaveByID fetches one leave record.
func (r *FixedScheduleRepository) FindLeaveByID(ctx context.Context, id string) (*models.FixedScheduleLeave, error) {
	query := fmt.Sprintf("SELECT %s FROM fixed_schedule_leaves WHERE id = $1", leaveColumns)
	var leave models.FixedScheduleLeave
	if err := r.db.GetContext(ctx, &leave, query, id); err != nil {
		return nil, err
	}
	return &leave, nil
}

// CreateLeave inserts a leave record. The unique (fixed_schedule_id, date)
// constraint enforces at most one leave per occurrence; violations surface
// via IsUniqueViolation.
func (r *FixedScheduleRepository) CreateLeave(ctx context.Context, leave *models.FixedScheduleLeave) error {
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	if leave.CreatedAt.IsZero() {
		leave.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO fixed_schedule_leaves (id, fixed_schedule_id, date, reason, substitute_teacher_id, created_at)
		VALUES (:id, :fixed_schedule_id, :date, :reason, :substitute_teacher_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, leave); err != nil {
		return fmt.Errorf("create leave: %w", err)
	}
	return nil
}

// DeleteLeave removes a leave record, restoring the occurrence.
func (r *FixedScheduleRepository) DeleteLeave(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM fixed_schedule_leaves WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete leave: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
