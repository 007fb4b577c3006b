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

// WorkShiftRepository stores the named time-of-day buckets.
type WorkShiftRepository struct {
	db *sqlx.DB
}

// NewWorkShiftRepository constructs a WorkShiftRepository.
func NewWorkShiftRepository(db *sqlx.DB) *WorkShiftRepository {
	return &WorkShiftRepository{db: db}
}

// List returns all shifts in display order.
func (r *WorkShiftRepository) List(ctx context.Context) ([]models.WorkShift, error) {
	const query = `SELECT id, name, start_time, end_time, sort_order, created_at FROM work_shifts ORDER BY sort_order, start_time`
	var shifts []models.WorkShift
	if err := r.db.SelectContext(ctx, &shifts, query); err != nil {
		return nil, fmt.Errorf("list work shifts: %w", err)
	}
	return shifts, nil
}

// FindByID fetches one shift.
func (r *WorkShiftRepository) FindByID(ctx context.Context, id string) (*models.WorkShift, error) {
	const query = `SELECT id, name, start_time, end_time, sort_order, created_at FROM work_shifts WHERE id = $1`
	var shift models.WorkShift
	if err := r.db.GetContext(ctx, &shift, query, id); err != nil {
		return nil, err
	}
	return &shift, nil
}

// Create inserts a shift.
func (r *WorkShiftRepository) Create(ctx context.Context, shift *models.WorkShift) error {
	if shift.ID == "" {
		shift.ID = uuid.NewString()
	}
	if shift.CreatedAt.IsZero() {
		shift.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO work_shifts (id, name, start_time, end_time, sort_order, created_at)
		VALUES (:id, :name, :start_time, :end_time, :sort_order, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, shift); err != nil {
		return fmt.Errorf("create work shift: %w", err)
	}
	return nil
}

// Update rewrites a shift's window and order.
func (r *WorkShiftRepository) Update(ctx context.Context, shift *models.WorkShift) error {
	const query = `UPDATE work_shifts SET name = :name, start_time = :start_time, end_time = :end_time, sort_order = :sort_order WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, shift)
	if err != nil {
		return fmt.Errorf("update work shift: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a shift.
func (r *WorkShiftRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM work_shifts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete work shift: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
