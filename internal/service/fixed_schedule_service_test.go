package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rosterly/staffing-api/internal/models"
	appErrors "github.com/rosterly/staffing-api/pkg/errors"
)

// fakeScheduleStore is a full in-memory schedule repository.
type fakeScheduleStore struct {
	fakeScheduleSource
	createLeaveErr error
}

func (f *fakeScheduleStore) Create(ctx context.Context, schedule *models.FixedSchedule) error {
	if schedule.ID == "" {
		schedule.ID = "gen-schedule"
	}
	f.schedules = append(f.schedules, *schedule)
	return nil
}

func (f *fakeScheduleStore) Update(ctx context.Context, schedule *models.FixedSchedule) error {
	for i := range f.schedules {
		if f.schedules[i].ID == schedule.ID {
			f.schedules[i] = *schedule
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeScheduleStore) Deactivate(ctx context.Context, id string) error {
	for i := range f.schedules {
		if f.schedules[i].ID == id {
			f.schedules[i].IsActive = false
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeScheduleStore) FindLeaveByID(ctx context.Context, id string) (*models.FixedScheduleLeave, error) {
	for i := range f.leaves {
		if f.leaves[i].ID == id {
			l := f.leaves[i]
			return &l, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeScheduleStore) CreateLeave(ctx context.Context, leave *models.FixedScheduleLeave) error {
	if f.createLeaveErr != nil {
		return f.createLeaveErr
	}
	if leave.ID == "" {
		leave.ID = "gen-leave"
	}
	f.leaves = append(f.leaves, *leave)
	return nil
}

func (f *fakeScheduleStore) DeleteLeave(ctx context.Context, id string) error {
	for i := range f.leaves {
		if f.leaves[i].ID == id {
			f.leaves = append(f.leaves[:i], f.leaves[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeStatsSpy struct {
	invalidations int
}

func (f *fakeStatsSpy) InvalidateStats(ctx context.Context) {
	f.invalidations++
}

type fakeSubstituteNotifier struct {
	requested []string
}

func (f *fakeSubstituteNotifier) SubstituteRequested(substitute *models.Teacher, schedule *models.FixedSchedule, date time.Time) {
	f.requested = append(f.requested, substitute.ID)
}

func scheduleRequest(teacherID string) FixedScheduleRequest {
	return FixedScheduleRequest{
		TeacherID:      teacherID,
		SubjectLevelID: "lvl1",
		DayOfWeek:      "monday",
		StartTime:      "09:00",
		EndTime:        "11:00",
		Role:           "teacher",
	}
}

func newScheduleFixture(store *fakeScheduleStore, windows *fakeWindows, teachers ...models.Teacher) (*FixedScheduleService, *fakeStatsSpy, *fakeSubstituteNotifier) {
	stats := &fakeStatsSpy{}
	notifier := &fakeSubstituteNotifier{}
	dir := &fakeTeacherDirectory{teachers: teachers}
	svc := NewFixedScheduleService(store, dir, windows, stats, notifier, nil, zap.NewNop())
	return svc, stats, notifier
}

func TestFixedScheduleCreate(t *testing.T) {
	store := &fakeScheduleStore{}
	svc, stats, _ := newScheduleFixture(store, &fakeWindows{}, activeTeacher("t1", models.EmploymentFulltime))

	schedule, err := svc.Create(context.Background(), scheduleRequest("t1"))
	require.NoError(t, err)
	assert.Equal(t, models.Monday, schedule.DayOfWeek)
	assert.True(t, schedule.IsActive)
	assert.Equal(t, 1, stats.invalidations)
	assert.Len(t, store.schedules, 1)
}

func TestFixedScheduleCreateInvertedTimes(t *testing.T) {
	svc, _, _ := newScheduleFixture(&fakeScheduleStore{}, &fakeWindows{}, activeTeacher("t1", models.EmploymentFulltime))

	req := scheduleRequest("t1")
	req.StartTime = "11:00"
	req.EndTime = "09:00"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFixedScheduleCreateInactiveTeacher(t *testing.T) {
	inactive := activeTeacher("t1", models.EmploymentFulltime)
	inactive.Status = models.TeacherOnLeave
	svc, _, _ := newScheduleFixture(&fakeScheduleStore{}, &fakeWindows{}, inactive)

	_, err := svc.Create(context.Background(), scheduleRequest("t1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateLeaveWrongWeekday(t *testing.T) {
	store := &fakeScheduleStore{fakeScheduleSource: fakeScheduleSource{schedules: []models.FixedSchedule{mondaySchedule("s1", "t1", "09:00", "11:00")}}}
	svc, _, _ := newScheduleFixture(store, &fakeWindows{}, activeTeacher("t1", models.EmploymentFulltime))

	// 2026-06-02 is a Tuesday.
	_, err := svc.CreateLeave(context.Background(), "s1", LeaveRequest{Date: day("2026-06-02")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateLeaveSubstituteIsScheduledTeacher(t *testing.T) {
	store := &fakeScheduleStore{fakeScheduleSource: fakeScheduleSource{schedules: []models.FixedSchedule{mondaySchedule("s1", "t1", "09:00", "11:00")}}}
	svc, _, _ := newScheduleFixture(store, &fakeWindows{}, activeTeacher("t1", models.EmploymentFulltime))

	_, err := svc.CreateLeave(context.Background(), "s1", LeaveRequest{Date: day("2026-06-01"), SubstituteTeacherID: strPtr("t1")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateLeaveSubstituteBusy(t *testing.T) {
	store := &fakeScheduleStore{fakeScheduleSource: fakeScheduleSource{schedules: []models.FixedSchedule{mondaySchedule("s1", "t1", "09:00", "11:00")}}}
	windows := &fakeWindows{busy: map[string]bool{"t2": true}}
	svc, _, _ := newScheduleFixture(store, windows, activeTeacher("t1", models.EmploymentFulltime), activeTeacher("t2", models.EmploymentFulltime))

	_, err := svc.CreateLeave(context.Background(), "s1", LeaveRequest{Date: day("2026-06-01"), SubstituteTeacherID: strPtr("t2")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateLeaveWithSubstitute(t *testing.T) {
	store := &fakeScheduleStore{fakeScheduleSource: fakeScheduleSource{schedules: []models.FixedSchedule{mondaySchedule("s1", "t1", "09:00", "11:00")}}}
	svc, stats, notifier := newScheduleFixture(store, &fakeWindows{}, activeTeacher("t1", models.EmploymentFulltime), activeTeacher("t2", models.EmploymentFulltime))

	leave, err := svc.CreateLeave(context.Background(), "s1", LeaveRequest{Date: day("2026-06-01"), SubstituteTeacherID: strPtr("t2")})
	require.NoError(t, err)
	assert.Equal(t, "s1", leave.FixedScheduleID)
	assert.Equal(t, 1, stats.invalidations)
	assert.Equal(t, []string{"t2"}, notifier.requested)
}

func TestCreateLeaveDuplicate(t *testing.T) {
	store := &fakeScheduleStore{
		fakeScheduleSource: fakeScheduleSource{schedules: []models.FixedSchedule{mondaySchedule("s1", "t1", "09:00", "11:00")}},
		createLeaveErr:     &pq.Error{Code: pq.ErrorCode("23505")},
	}
	svc, _, _ := newScheduleFixture(store, &fakeWindows{}, activeTeacher("t1", models.EmploymentFulltime))

	_, err := svc.CreateLeave(context.Background(), "s1", LeaveRequest{Date: day("2026-06-01")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestDeleteLeaveMissing(t *testing.T) {
	svc, _, _ := newScheduleFixture(&fakeScheduleStore{}, &fakeWindows{})

	err := svc.DeleteLeave(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleOccurrencesSkipLeaveDays(t *testing.T) {
	store := &fakeScheduleStore{fakeScheduleSource: fakeScheduleSource{
		schedules: []models.FixedSchedule{mondaySchedule("s1", "t1", "09:00", "11:00")},
		leaves:    []models.FixedScheduleLeave{{ID: "l1", FixedScheduleID: "s1", Date: day("2026-06-08")}},
	}}
	svc, _, _ := newScheduleFixture(store, &fakeWindows{}, activeTeacher("t1", models.EmploymentFulltime))

	occs, err := svc.Occurrences(context.Background(), "s1", day("2026-06-01"), day("2026-06-14"))
	require.NoError(t, err)
	require.Len(t, occs, 1)
	assert.Equal(t, day("2026-06-01"), occs[0].Date)
}
