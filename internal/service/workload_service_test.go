package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rosterly/staffing-api/internal/models"
	appErrors "github.com/rosterly/staffing-api/pkg/errors"
)

func tutorSchedule(id, teacherID string, weekday models.Weekday, start, end string) models.FixedSchedule {
	return models.FixedSchedule{
		ID:        id,
		TeacherID: teacherID,
		DayOfWeek: weekday,
		StartTime: start,
		EndTime:   end,
		Role:      models.RoleScheduleTutor,
		IsActive:  true,
	}
}

func workloadFixture() (*fakeTeacherDirectory, *fakeScheduleSource, *fakeClassStore) {
	teachers := &fakeTeacherDirectory{teachers: []models.Teacher{
		activeTeacher("t1", models.EmploymentFulltime),
		activeTeacher("t2", models.EmploymentFulltime),
	}}
	schedules := &fakeScheduleSource{
		schedules: []models.FixedSchedule{
			// Mondays 09:00-11:00 for t1, two clock hours.
			mondaySchedule("s1", "t1", "09:00", "11:00"),
			// Tuesdays 14:00-16:00 tutoring for t1, credited at 1.5.
			tutorSchedule("s2", "t1", models.Tuesday, "14:00", "16:00"),
			// Wednesdays 10:00-11:00 for t2; t1 covers June 3rd.
			{ID: "s3", TeacherID: "t2", DayOfWeek: models.Wednesday, StartTime: "10:00", EndTime: "11:00", Role: models.RoleScheduleTeacher, IsActive: true},
		},
		leaves: []models.FixedScheduleLeave{
			{ID: "l1", FixedScheduleID: "s3", Date: day("2026-06-03"), SubstituteTeacherID: strPtr("t1")},
		},
	}
	classes := &fakeClassStore{classes: []models.AdHocClass{
		{ID: "c1", Kind: models.KindOffset, ClassName: "Catch-up physics", AssignedTeacherID: strPtr("t1"), ScheduledDate: day("2026-06-04"), StartTime: "10:00", EndTime: "11:30", Status: models.StatusAssigned},
		{ID: "c2", Kind: models.KindSupplementary, ClassName: "Revision", AssignedTeacherID: strPtr("t2"), ScheduledDate: day("2026-06-05"), StartTime: "09:00", EndTime: "10:00", Status: models.StatusCompleted},
		{ID: "c3", Kind: models.KindSupplementary, ClassName: "Cancelled thing", AssignedTeacherID: strPtr("t1"), ScheduledDate: day("2026-06-05"), StartTime: "12:00", EndTime: "13:00", Status: models.StatusCancelled},
	}}
	return teachers, schedules, classes
}

func TestTeacherStatsAggregation(t *testing.T) {
	teachers, schedules, classes := workloadFixture()
	svc := NewWorkloadService(teachers, schedules, classes, nil, 0, zap.NewNop())

	stats, _, err := svc.TeacherStats(context.Background(), "t1", day("2026-06-01"), day("2026-06-07"))
	require.NoError(t, err)

	assert.Equal(t, 3.5, stats.FixedHours)
	assert.Equal(t, 2, stats.FixedCount)
	assert.Equal(t, 1.0, stats.SubstituteHours)
	assert.Equal(t, 1, stats.SubstituteCount)
	assert.Equal(t, 1.5, stats.OffsetHours)
	assert.Equal(t, 1, stats.AdHocCount)
	assert.Equal(t, 6.0, stats.TotalHours)
}

func TestTeacherStatsLeaveDropsOwnOccurrence(t *testing.T) {
	teachers, schedules, classes := workloadFixture()
	schedules.leaves = append(schedules.leaves, models.FixedScheduleLeave{ID: "l2", FixedScheduleID: "s1", Date: day("2026-06-01")})
	svc := NewWorkloadService(teachers, schedules, classes, nil, 0, zap.NewNop())

	stats, _, err := svc.TeacherStats(context.Background(), "t1", day("2026-06-01"), day("2026-06-07"))
	require.NoError(t, err)
	assert.Equal(t, 1.5, stats.FixedHours)
	assert.Equal(t, 1, stats.FixedCount)
}

func TestTeacherStatsUnknownTeacher(t *testing.T) {
	teachers, schedules, classes := workloadFixture()
	svc := NewWorkloadService(teachers, schedules, classes, nil, 0, zap.NewNop())

	_, _, err := svc.TeacherStats(context.Background(), "ghost", day("2026-06-01"), day("2026-06-07"))
	require.Error(t, err)
}

func TestTotalHoursUnrounded(t *testing.T) {
	teachers, schedules, classes := workloadFixture()
	svc := NewWorkloadService(teachers, schedules, classes, nil, 0, zap.NewNop())

	total, err := svc.TotalHours(context.Background(), "t1", day("2026-06-01"), day("2026-06-07"))
	require.NoError(t, err)
	assert.InDelta(t, 6.0, total, 1e-9)
}

func TestTeamSummary(t *testing.T) {
	teachers, schedules, classes := workloadFixture()
	svc := NewWorkloadService(teachers, schedules, classes, nil, 0, zap.NewNop())

	summary, _, err := svc.TeamSummary(context.Background(), day("2026-06-01"), day("2026-06-07"))
	require.NoError(t, err)

	require.Len(t, summary.Teachers, 2)
	// Heaviest load first.
	assert.Equal(t, "t1", summary.Teachers[0].TeacherID)
	assert.Equal(t, "t2", summary.Teachers[1].TeacherID)
	assert.Equal(t, 6.0, summary.Teachers[0].TotalHours)
	// t2's only Wednesday occurrence is covered by t1, leaving just the
	// completed supplementary class.
	assert.Equal(t, 1.0, summary.Teachers[1].OffsetHours)
	assert.Equal(t, 1, summary.CompletedSupplemental)
	assert.Equal(t, summary.TotalFixedHours+summary.TotalSubstituteHours+summary.TotalOffsetHours, summary.TotalHours)
}

func TestTeacherStatsCountsPendingClasses(t *testing.T) {
	teachers, schedules, classes := workloadFixture()
	classes.classes = append(classes.classes, models.AdHocClass{
		ID: "c4", Kind: models.KindOffset, ClassName: "Planned catch-up",
		AssignedTeacherID: strPtr("t1"), ScheduledDate: day("2026-06-06"),
		StartTime: "08:00", EndTime: "09:00", Status: models.StatusPending,
	})
	svc := NewWorkloadService(teachers, schedules, classes, nil, 0, zap.NewNop())

	stats, _, err := svc.TeacherStats(context.Background(), "t1", day("2026-06-01"), day("2026-06-07"))
	require.NoError(t, err)

	// The pending hour joins the 1.5 assigned ad-hoc hours.
	assert.Equal(t, 2.5, stats.OffsetHours)
	assert.Equal(t, 2, stats.AdHocCount)
}

func TestTeamSummaryKeepsDeactivatedTeacherWithHours(t *testing.T) {
	teachers, schedules, classes := workloadFixture()
	retired := activeTeacher("t3", models.EmploymentParttime)
	retired.Status = models.TeacherInactive
	idle := activeTeacher("t4", models.EmploymentParttime)
	idle.Status = models.TeacherInactive
	teachers.teachers = append(teachers.teachers, retired, idle)
	classes.classes = append(classes.classes, models.AdHocClass{
		ID: "c5", Kind: models.KindSupplementary, ClassName: "Final revision",
		AssignedTeacherID: strPtr("t3"), ScheduledDate: day("2026-06-02"),
		StartTime: "13:00", EndTime: "14:00", Status: models.StatusCompleted,
	})
	svc := NewWorkloadService(teachers, schedules, classes, nil, 0, zap.NewNop())

	summary, _, err := svc.TeamSummary(context.Background(), day("2026-06-01"), day("2026-06-07"))
	require.NoError(t, err)

	ids := make([]string, 0, len(summary.Teachers))
	for _, stats := range summary.Teachers {
		ids = append(ids, stats.TeacherID)
	}
	assert.Contains(t, ids, "t3")
	assert.NotContains(t, ids, "t4")
}

// memoryCacheRepo is an in-process CacheRepository for cache-path tests.
type memoryCacheRepo struct {
	entries map[string][]byte
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = map[string][]byte{}
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.entries = map[string][]byte{}
	return nil
}

func TestTeacherStatsCacheHitFlag(t *testing.T) {
	teachers, schedules, classes := workloadFixture()
	cacheSvc := NewCacheService(&memoryCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := NewWorkloadService(teachers, schedules, classes, cacheSvc, time.Minute, zap.NewNop())

	first, hit, err := svc.TeacherStats(context.Background(), "t1", day("2026-06-01"), day("2026-06-07"))
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := svc.TeacherStats(context.Background(), "t1", day("2026-06-01"), day("2026-06-07"))
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first.TotalHours, second.TotalHours)

	svc.InvalidateStats(context.Background())
	_, hit, err = svc.TeacherStats(context.Background(), "t1", day("2026-06-01"), day("2026-06-07"))
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestPersonalStatsAgenda(t *testing.T) {
	teachers, schedules, classes := workloadFixture()
	svc := NewWorkloadService(teachers, schedules, classes, nil, 0, zap.NewNop())

	personal, err := svc.PersonalStats(context.Background(), "t1", day("2026-06-01"))
	require.NoError(t, err)

	require.Len(t, personal.Agenda, 4)
	assert.Equal(t, "Class", personal.Agenda[0].Title)
	assert.Equal(t, "Tutoring session", personal.Agenda[1].Title)
	assert.Equal(t, "Substitute cover", personal.Agenda[2].Title)
	assert.Equal(t, "Catch-up physics", personal.Agenda[3].Title)
	assert.Equal(t, "adhoc", personal.Agenda[3].Source)

	for i := 1; i < len(personal.Agenda); i++ {
		assert.False(t, personal.Agenda[i].Date.Before(personal.Agenda[i-1].Date))
	}
}
