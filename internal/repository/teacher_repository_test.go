package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterly/staffing-api/internal/models"
)

func teacherRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "full_name", "email", "phone", "employment_role", "status", "max_offset_classes", "created_at", "updated_at"}).
		AddRow("t1", "Ana Gomez", "ana@example.com", nil, string(models.EmploymentFulltime), string(models.TeacherActive), 4, now, now)
}

func TestTeacherList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	now := time.Now()
	status := models.TeacherActive
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name, email, phone, employment_role, status, max_offset_classes, created_at, updated_at FROM teachers WHERE 1=1 AND status = $1 ORDER BY full_name ASC LIMIT 20 OFFSET 0")).
		WithArgs(string(status)).
		WillReturnRows(teacherRows(now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM teachers WHERE 1=1 AND status = $1")).
		WithArgs(status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	teachers, total, err := repo.List(context.Background(), models.TeacherFilter{Status: &status, SortBy: "full_name", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Len(t, teachers, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Ana Gomez", teachers[0].FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery("SELECT .* FROM teachers WHERE id = ").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherExistsByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM teachers WHERE LOWER(email) = LOWER($1)")).
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByEmail(context.Background(), "ana@example.com", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec("INSERT INTO teachers").WillReturnResult(sqlmock.NewResult(1, 1))

	teacher := &models.Teacher{
		FullName:         "Ana Gomez",
		Email:            "ana@example.com",
		EmploymentRole:   models.EmploymentFulltime,
		Status:           models.TeacherActive,
		MaxOffsetClasses: 4,
	}
	err := repo.Create(context.Background(), teacher)
	require.NoError(t, err)
	assert.NotEmpty(t, teacher.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
