package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/rosterly/staffing-api/internal/models"
)

// ErrVersionConflict signals a lost optimistic-concurrency race on an ad-hoc
// class row. Callers re-read current state and retry or give up.
var ErrVersionConflict = fmt.Errorf("adhoc class version conflict")

// AdHocClassRepository manages one-off classes of every kind.
type AdHocClassRepository struct {
	db *sqlx.DB
}

// NewAdHocClassRepository constructs an AdHocClassRepository.
func NewAdHocClassRepository(db *sqlx.DB) *AdHocClassRepository {
	return &AdHocClassRepository{db: db}
}

const adhocColumns = "id, kind, class_name, subject_level_id, subject_id, scheduled_date, start_time, end_time, assigned_teacher_id, status, assigned_history, meeting_link, notes, version, created_at, updated_at"

// List returns classes matching the filter with total count.
func (r *AdHocClassRepository) List(ctx context.Context, filter models.AdHocClassFilter) ([]models.AdHocClass, int, error) {
	base := "FROM adhoc_classes WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Kind != nil {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)+1))
		args = append(args, *filter.Kind)
	}
	if filter.AssignedTeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("assigned_teacher_id = $%d", len(args)+1))
		args = append(args, filter.AssignedTeacherID)
	}
	if filter.SubjectLevelID != "" {
		conditions = append(conditions, fmt.Sprintf("subject_level_id = $%d", len(args)+1))
		args = append(args, filter.SubjectLevelID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(statuses))
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("scheduled_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("scheduled_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"scheduled_date": "scheduled_date",
		"created_at":     "created_at",
		"class_name":     "class_name",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "scheduled_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, start_time LIMIT %d OFFSET %d", adhocColumns, base, column, order, size, offset)
	var classes []models.AdHocClass
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list adhoc classes: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count adhoc classes: %w", err)
	}
	return classes, total, nil
}

// ListByTeacherAndDate returns a teacher's classes on one date with any of
// the given statuses, the busy-interval input for availability checks.
func (r *AdHocClassRepository) ListByTeacherAndDate(ctx context.Context, teacherID string, date time.Time, statuses []models.ClassStatus) ([]models.AdHocClass, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	query := fmt.Sprintf("SELECT %s FROM adhoc_classes WHERE assigned_teacher_id = $1 AND scheduled_date = $2 AND status = ANY($3) ORDER BY start_time", adhocColumns)
	var classes []models.AdHocClass
	if err := r.db.SelectContext(ctx, &classes, query, teacherID, date, pq.Array(values)); err != nil {
		return nil, fmt.Errorf("list adhoc classes by teacher and date: %w", err)
	}
	return classes, nil
}

// ListByTeacherAndRange returns all of a teacher's classes with any of the
// given statuses across a date range, unpaged, for workload aggregation.
func (r *AdHocClassRepository) ListByTeacherAndRange(ctx context.Context, teacherID string, from, to time.Time, statuses []models.ClassStatus) ([]models.AdHocClass, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	query := fmt.Sprintf("SELECT %s FROM adhoc_classes WHERE assigned_teacher_id = $1 AND scheduled_date BETWEEN $2 AND $3 AND status = ANY($4) ORDER BY scheduled_date, start_time", adhocColumns)
	var classes []models.AdHocClass
	if err := r.db.SelectContext(ctx, &classes, query, teacherID, from, to, pq.Array(values)); err != nil {
		return nil, fmt.Errorf("list adhoc classes by teacher and range: %w", err)
	}
	return classes, nil
}

// CountConfirmedByTeacher counts a teacher's confirmed classes in a window,
// the load figure used by allocation ranking and the capacity gate.
func (r *AdHocClassRepository) CountConfirmedByTeacher(ctx context.Context, teacherID string, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM adhoc_classes
		WHERE assigned_teacher_id = $1 AND status = ANY($2) AND scheduled_date BETWEEN $3 AND $4`
	statuses := make([]string, len(models.ConfirmedStatuses))
	for i, s := range models.ConfirmedStatuses {
		statuses[i] = string(s)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, teacherID, pq.Array(statuses), from, to); err != nil {
		return 0, fmt.Errorf("count confirmed classes: %w", err)
	}
	return count, nil
}

// FindByID fetches one class.
func (r *AdHocClassRepository) FindByID(ctx context.Context, id string) (*models.AdHocClass, error) {
	query := fmt.Sprintf("SELECT %s FROM adhoc_classes WHERE id = $1", adhocColumns)
	var class models.AdHocClass
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// Create inserts a class in pending status unless preset.
func (r *AdHocClassRepository) Create(ctx context.Context, class *models.AdHocClass) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	if class.Status == "" {
		class.Status = models.StatusPending
	}
	if class.AssignedHistory == nil {
		class.AssignedHistory = pq.StringArray{}
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now
	class.Version = 1
	const query = `INSERT INTO adhoc_classes (id, kind, class_name, subject_level_id, subject_id, scheduled_date, start_time, end_time, assigned_teacher_id, status, assigned_history, meeting_link, notes, version, created_at, updated_at)
		VALUES (:id, :kind, :class_name, :subject_level_id, :subject_id, :scheduled_date, :start_time, :end_time, :assigned_teacher_id, :status, :assigned_history, :meeting_link, :notes, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create adhoc class: %w", err)
	}
	return nil
}

// Update modifies mutable class fields without touching assignment state.
func (r *AdHocClassRepository) Update(ctx context.Context, class *models.AdHocClass) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE adhoc_classes SET class_name = :class_name, subject_level_id = :subject_level_id, subject_id = :subject_id, scheduled_date = :scheduled_date, start_time = :start_time, end_time = :end_time, meeting_link = :meeting_link, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("update adhoc class: %w", err)
	}
	return nil
}

// AssignTeacher writes the assignment, history append, status flip and
// version bump in one guarded statement. Losing a concurrent race returns
// ErrVersionConflict so at most one assignment wins a given window.
func (r *AdHocClassRepository) AssignTeacher(ctx context.Context, classID string, version int, teacherID string, history []string, status models.ClassStatus) error {
	const query = `UPDATE adhoc_classes
		SET assigned_teacher_id = $3, assigned_history = $4, status = $5, version = version + 1, updated_at = $6
		WHERE id = $1 AND version = $2`
	result, err := r.db.ExecContext(ctx, query, classID, version, teacherID, pq.Array(history), status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("assign teacher: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("assign teacher rows: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// ClearAssignment detaches the current teacher and returns the class to
// pending, bumping the version under the same optimistic guard.
func (r *AdHocClassRepository) ClearAssignment(ctx context.Context, classID string, version int, history []string) error {
	const query = `UPDATE adhoc_classes
		SET assigned_teacher_id = NULL, assigned_history = $3, status = $4, version = version + 1, updated_at = $5
		WHERE id = $1 AND version = $2`
	result, err := r.db.ExecContext(ctx, query, classID, version, pq.Array(history), models.StatusPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("clear assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("clear assignment rows: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// SetStatus moves a class through its lifecycle. Legality of the transition
// is the service's concern; the version guard still applies.
func (r *AdHocClassRepository) SetStatus(ctx context.Context, classID string, version int, status models.ClassStatus) error {
	const query = `UPDATE adhoc_classes SET status = $3, version = version + 1, updated_at = $4 WHERE id = $1 AND version = $2`
	result, err := r.db.ExecContext(ctx, query, classID, version, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set class status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set class status rows: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// Delete removes a class record.
func (r *AdHocClassRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM adhoc_classes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete adhoc class: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountCompletedByKind counts completed classes of a kind in a range, used
// by the team summary.
func (r *AdHocClassRepository) CountCompletedByKind(ctx context.Context, kind models.ClassKind, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM adhoc_classes WHERE kind = $1 AND status = $2 AND scheduled_date BETWEEN $3 AND $4`
	var count int
	if err := r.db.GetContext(ctx, &count, query, kind, models.StatusCompleted, from, to); err != nil {
		return 0, fmt.Errorf("count completed classes: %w", err)
	}
	return count, nil
}
