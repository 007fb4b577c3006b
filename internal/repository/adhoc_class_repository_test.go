package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterly/staffing-api/internal/models"
)

func TestAssignTeacherBumpsVersion(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdHocClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE adhoc_classes")).
		WithArgs("c1", 3, "t1", sqlmock.AnyArg(), string(models.StatusAssigned), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AssignTeacher(context.Background(), "c1", 3, "t1", []string{"t1"}, models.StatusAssigned)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignTeacherStaleVersion(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdHocClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE adhoc_classes")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AssignTeacher(context.Background(), "c1", 2, "t1", []string{"t1"}, models.StatusAssigned)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountConfirmedByTeacher(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdHocClassRepository(db)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("t1", sqlmock.AnyArg(), from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	count, err := repo.CountConfirmedByTeacher(context.Background(), "t1", from, to)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdHocListFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdHocClassRepository(db)

	now := time.Now()
	kind := models.KindOffset
	rows := sqlmock.NewRows([]string{"id", "kind", "class_name", "subject_level_id", "subject_id", "scheduled_date", "start_time", "end_time", "assigned_teacher_id", "status", "assigned_history", "meeting_link", "notes", "version", "created_at", "updated_at"}).
		AddRow("c1", string(kind), "Algebra makeup", "sl1", nil, now, "14:00", "15:30", "t1", string(models.StatusAssigned), "{}", nil, nil, 1, now, now)
	mock.ExpectQuery("SELECT .* FROM adhoc_classes WHERE 1=1 AND kind = ").
		WithArgs(string(kind)).
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(string(kind)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	classes, total, err := repo.List(context.Background(), models.AdHocClassFilter{Kind: &kind})
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Algebra makeup", classes[0].ClassName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
