package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterly/staffing-api/internal/models"
)

func TestFixedScheduleListByTeacher(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFixedScheduleRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "teacher_id", "subject_level_id", "day_of_week", "start_time", "end_time", "start_date", "end_date", "role", "is_active", "created_at", "updated_at"}).
		AddRow("s1", "t1", "sl1", string(models.Monday), "09:00", "10:30", nil, nil, string(models.RoleScheduleTeacher), true, now, now)
	mock.ExpectQuery("SELECT .* FROM fixed_schedules WHERE 1=1 AND teacher_id = ").
		WithArgs("t1").
		WillReturnRows(rows)

	schedules, err := repo.List(context.Background(), models.FixedScheduleFilter{TeacherID: "t1"})
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, models.Monday, schedules[0].DayOfWeek)
	assert.Equal(t, "09:00", schedules[0].StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFixedScheduleDeactivate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFixedScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE fixed_schedules SET is_active = FALSE, updated_at = $2 WHERE id = $1")).
		WithArgs("s1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Deactivate(context.Background(), "s1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLeaveDuplicateDate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFixedScheduleRepository(db)

	mock.ExpectExec("INSERT INTO fixed_schedule_leaves").
		WillReturnError(&pq.Error{Code: pq.ErrorCode(uniqueViolation)})

	err := repo.CreateLeave(context.Background(), &models.FixedScheduleLeave{
		FixedScheduleID: "s1",
		Date:            time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteLeaveNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFixedScheduleRepository(db)

	mock.ExpectExec("DELETE FROM fixed_schedule_leaves").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteLeave(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
