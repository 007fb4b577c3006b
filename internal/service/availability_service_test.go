package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rosterly/staffing-api/internal/models"
)

// fakeScheduleSource serves schedules and leaves from memory, applying the
// same filter semantics the SQL layer does.
type fakeScheduleSource struct {
	schedules []models.FixedSchedule
	leaves    []models.FixedScheduleLeave
}

func (f *fakeScheduleSource) List(ctx context.Context, filter models.FixedScheduleFilter) ([]models.FixedSchedule, error) {
	var out []models.FixedSchedule
	for _, s := range f.schedules {
		if filter.TeacherID != "" && s.TeacherID != filter.TeacherID {
			continue
		}
		if filter.ActiveOnly && !s.IsActive {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeScheduleSource) FindByID(ctx context.Context, id string) (*models.FixedSchedule, error) {
	for i := range f.schedules {
		if f.schedules[i].ID == id {
			s := f.schedules[i]
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeScheduleSource) ListLeaves(ctx context.Context, filter models.LeaveFilter) ([]models.FixedScheduleLeave, error) {
	var out []models.FixedScheduleLeave
	for _, l := range f.leaves {
		if filter.FixedScheduleID != "" && l.FixedScheduleID != filter.FixedScheduleID {
			continue
		}
		if filter.TeacherID != "" {
			schedule, err := f.FindByID(ctx, l.FixedScheduleID)
			if err != nil || schedule.TeacherID != filter.TeacherID {
				continue
			}
		}
		if filter.SubstituteTeacherID != "" {
			if l.SubstituteTeacherID == nil || *l.SubstituteTeacherID != filter.SubstituteTeacherID {
				continue
			}
		}
		if filter.DateFrom != nil && l.Date.Before(truncateDay(*filter.DateFrom)) {
			continue
		}
		if filter.DateTo != nil && l.Date.After(truncateDay(*filter.DateTo)) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// fakeClassStore answers class queries from memory.
type fakeClassStore struct {
	classes []models.AdHocClass
}

func statusIn(status models.ClassStatus, statuses []models.ClassStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func (f *fakeClassStore) ListByTeacherAndDate(ctx context.Context, teacherID string, date time.Time, statuses []models.ClassStatus) ([]models.AdHocClass, error) {
	var out []models.AdHocClass
	for _, c := range f.classes {
		if c.AssignedTeacherID == nil || *c.AssignedTeacherID != teacherID {
			continue
		}
		if !truncateDay(c.ScheduledDate).Equal(truncateDay(date)) {
			continue
		}
		if !statusIn(c.Status, statuses) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeClassStore) ListByTeacherAndRange(ctx context.Context, teacherID string, from, to time.Time, statuses []models.ClassStatus) ([]models.AdHocClass, error) {
	var out []models.AdHocClass
	for _, c := range f.classes {
		if c.AssignedTeacherID == nil || *c.AssignedTeacherID != teacherID {
			continue
		}
		d := truncateDay(c.ScheduledDate)
		if d.Before(truncateDay(from)) || d.After(truncateDay(to)) {
			continue
		}
		if !statusIn(c.Status, statuses) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeClassStore) CountCompletedByKind(ctx context.Context, kind models.ClassKind, from, to time.Time) (int, error) {
	count := 0
	for _, c := range f.classes {
		if c.Kind != kind || c.Status != models.StatusCompleted {
			continue
		}
		d := truncateDay(c.ScheduledDate)
		if d.Before(truncateDay(from)) || d.After(truncateDay(to)) {
			continue
		}
		count++
	}
	return count, nil
}

func mondaySchedule(id, teacherID, start, end string) models.FixedSchedule {
	return models.FixedSchedule{
		ID:        id,
		TeacherID: teacherID,
		DayOfWeek: models.Monday,
		StartTime: start,
		EndTime:   end,
		Role:      models.RoleScheduleTeacher,
		IsActive:  true,
	}
}

func TestIsWindowFreeBlockedByFixedOccurrence(t *testing.T) {
	schedules := &fakeScheduleSource{schedules: []models.FixedSchedule{mondaySchedule("s1", "t1", "09:00", "11:00")}}
	svc := NewAvailabilityService(schedules, &fakeClassStore{}, "", "", zap.NewNop())

	free, err := svc.IsWindowFree(context.Background(), "t1", day("2026-06-01"), "10:00", "12:00", "")
	require.NoError(t, err)
	assert.False(t, free)

	// Back to back is fine, the windows are half open.
	free, err = svc.IsWindowFree(context.Background(), "t1", day("2026-06-01"), "11:00", "12:00", "")
	require.NoError(t, err)
	assert.True(t, free)
}

func TestIsWindowFreeOnLeaveDay(t *testing.T) {
	schedules := &fakeScheduleSource{
		schedules: []models.FixedSchedule{mondaySchedule("s1", "t1", "09:00", "11:00")},
		leaves:    []models.FixedScheduleLeave{{ID: "l1", FixedScheduleID: "s1", Date: day("2026-06-01")}},
	}
	svc := NewAvailabilityService(schedules, &fakeClassStore{}, "", "", zap.NewNop())

	free, err := svc.IsWindowFree(context.Background(), "t1", day("2026-06-01"), "09:00", "11:00", "")
	require.NoError(t, err)
	assert.True(t, free)
}

func TestIsWindowFreeSubstituteDutyBlocks(t *testing.T) {
	schedules := &fakeScheduleSource{
		schedules: []models.FixedSchedule{mondaySchedule("s1", "t1", "09:00", "11:00")},
		leaves:    []models.FixedScheduleLeave{{ID: "l1", FixedScheduleID: "s1", Date: day("2026-06-01"), SubstituteTeacherID: strPtr("t2")}},
	}
	svc := NewAvailabilityService(schedules, &fakeClassStore{}, "", "", zap.NewNop())

	free, err := svc.IsWindowFree(context.Background(), "t2", day("2026-06-01"), "10:00", "12:00", "")
	require.NoError(t, err)
	assert.False(t, free)
}

func TestIsWindowFreePendingClassNeverBlocks(t *testing.T) {
	classes := &fakeClassStore{classes: []models.AdHocClass{
		{ID: "c1", AssignedTeacherID: strPtr("t1"), ScheduledDate: day("2026-06-01"), StartTime: "09:00", EndTime: "10:00", Status: models.StatusPending},
		{ID: "c2", AssignedTeacherID: strPtr("t1"), ScheduledDate: day("2026-06-01"), StartTime: "13:00", EndTime: "14:00", Status: models.StatusAssigned},
	}}
	svc := NewAvailabilityService(&fakeScheduleSource{}, classes, "", "", zap.NewNop())

	free, err := svc.IsWindowFree(context.Background(), "t1", day("2026-06-01"), "09:00", "10:00", "")
	require.NoError(t, err)
	assert.True(t, free)

	free, err = svc.IsWindowFree(context.Background(), "t1", day("2026-06-01"), "13:30", "15:00", "")
	require.NoError(t, err)
	assert.False(t, free)
}

func TestIsWindowFreeExcludesOwnClass(t *testing.T) {
	classes := &fakeClassStore{classes: []models.AdHocClass{
		{ID: "c1", AssignedTeacherID: strPtr("t1"), ScheduledDate: day("2026-06-01"), StartTime: "09:00", EndTime: "10:00", Status: models.StatusAssigned},
	}}
	svc := NewAvailabilityService(&fakeScheduleSource{}, classes, "", "", zap.NewNop())

	free, err := svc.IsWindowFree(context.Background(), "t1", day("2026-06-01"), "09:00", "10:00", "c1")
	require.NoError(t, err)
	assert.True(t, free)
}

func TestIsWindowFreeRejectsInvertedWindow(t *testing.T) {
	svc := NewAvailabilityService(&fakeScheduleSource{}, &fakeClassStore{}, "", "", zap.NewNop())
	_, err := svc.IsWindowFree(context.Background(), "t1", day("2026-06-01"), "10:00", "10:00", "")
	require.Error(t, err)
}

func TestFreeSlots(t *testing.T) {
	schedules := &fakeScheduleSource{schedules: []models.FixedSchedule{
		mondaySchedule("s1", "t1", "09:00", "11:00"),
		mondaySchedule("s2", "t1", "11:30", "13:00"),
	}}
	svc := NewAvailabilityService(schedules, &fakeClassStore{}, "08:00", "18:00", zap.NewNop())

	slots, err := svc.FreeSlots(context.Background(), "t1", day("2026-06-01"), "", "")
	require.NoError(t, err)

	// The 30 minute gap between the two schedules is below the significant
	// threshold and disappears.
	require.Len(t, slots, 2)
	assert.Equal(t, models.FreeSlot{Start: "08:00", End: "09:00"}, slots[0])
	assert.Equal(t, models.FreeSlot{Start: "13:00", End: "18:00"}, slots[1])
}

func TestFreeSlotsCustomWindow(t *testing.T) {
	schedules := &fakeScheduleSource{schedules: []models.FixedSchedule{
		mondaySchedule("s1", "t1", "09:00", "11:00"),
	}}
	svc := NewAvailabilityService(schedules, &fakeClassStore{}, "08:00", "18:00", zap.NewNop())

	slots, err := svc.FreeSlots(context.Background(), "t1", day("2026-06-01"), "10:00", "14:00")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, models.FreeSlot{Start: "11:00", End: "14:00"}, slots[0])

	_, err = svc.FreeSlots(context.Background(), "t1", day("2026-06-01"), "14:00", "10:00")
	require.Error(t, err)
}

func TestFreeSlotsEmptyDay(t *testing.T) {
	svc := NewAvailabilityService(&fakeScheduleSource{}, &fakeClassStore{}, "08:00", "18:00", zap.NewNop())
	slots, err := svc.FreeSlots(context.Background(), "t1", day("2026-06-01"), "", "")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, models.FreeSlot{Start: "08:00", End: "18:00"}, slots[0])
}
