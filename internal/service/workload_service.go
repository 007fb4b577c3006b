package service

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rosterly/staffing-api/internal/models"
	appErrors "github.com/rosterly/staffing-api/pkg/errors"
	"github.com/rosterly/staffing-api/pkg/timeutil"
)

type workloadTeacherRepo interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
	ListAll(ctx context.Context) ([]models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type workloadClassRepo interface {
	ListByTeacherAndRange(ctx context.Context, teacherID string, from, to time.Time, statuses []models.ClassStatus) ([]models.AdHocClass, error)
	CountCompletedByKind(ctx context.Context, kind models.ClassKind, from, to time.Time) (int, error)
}

// agendaDays is the length of the forward-looking personal agenda.
const agendaDays = 7

// WorkloadService aggregates credited hours per teacher. Fixed hours come
// from occurrence expansion with leave days removed, substitute hours from
// covered leaves, ad-hoc hours from classes in pending, assigned or completed
// status. Pending classes count toward planned workload even though they
// never block availability.
type WorkloadService struct {
	teachers  workloadTeacherRepo
	schedules scheduleSource
	classes   workloadClassRepo
	cache     *CacheService
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewWorkloadService constructs a WorkloadService. cache may be nil.
func NewWorkloadService(teachers workloadTeacherRepo, schedules scheduleSource, classes workloadClassRepo, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *WorkloadService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkloadService{teachers: teachers, schedules: schedules, classes: classes, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func statsCacheKey(teacherID string, from, to time.Time) string {
	return fmt.Sprintf("stats:teacher:%s:%s:%s", teacherID, from.Format(dateLayout), to.Format(dateLayout))
}

func teamCacheKey(from, to time.Time) string {
	return fmt.Sprintf("stats:team:%s:%s", from.Format(dateLayout), to.Format(dateLayout))
}

// InvalidateStats drops every cached stats payload. Write paths call this
// after anything that shifts credited hours.
func (s *WorkloadService) InvalidateStats(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "stats:*"); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.Error(err))
	}
}

// rawStats aggregates unrounded components for one teacher over [from, to].
func (s *WorkloadService) rawStats(ctx context.Context, teacher *models.Teacher, from, to time.Time) (*models.TeacherStats, error) {
	stats := &models.TeacherStats{TeacherID: teacher.ID, TeacherName: teacher.FullName}

	occurrences, err := teacherOccurrences(ctx, s.schedules, teacher.ID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to expand occurrences")
	}
	for _, occ := range occurrences {
		if occ.Substitute {
			stats.SubstituteHours += occ.Hours
			stats.SubstituteCount++
		} else {
			stats.FixedHours += occ.Hours
			stats.FixedCount++
		}
	}

	classes, err := s.classes.ListByTeacherAndRange(ctx, teacher.ID, from, to, models.WorkloadStatuses)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}
	for _, class := range classes {
		hours, err := timeutil.DurationHours(class.StartTime, class.EndTime)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class time")
		}
		stats.OffsetHours += hours
		stats.AdHocCount++
	}
	return stats, nil
}

// TotalHours returns a teacher's unrounded credited hours across all sources
// for the range. Allocation ranking uses this as a tie break.
func (s *WorkloadService) TotalHours(ctx context.Context, teacherID string, from, to time.Time) (float64, error) {
	teacher, err := s.loadTeacher(ctx, teacherID)
	if err != nil {
		return 0, err
	}
	stats, err := s.rawStats(ctx, teacher, from, to)
	if err != nil {
		return 0, err
	}
	return stats.FixedHours + stats.SubstituteHours + stats.OffsetHours, nil
}

// TeacherStats computes the displayed per-teacher aggregate, components
// rounded to one decimal. The second return reports whether the payload was
// served from cache.
func (s *WorkloadService) TeacherStats(ctx context.Context, teacherID string, from, to time.Time) (*models.TeacherStats, bool, error) {
	key := statsCacheKey(teacherID, from, to)
	var cached models.TeacherStats
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	teacher, err := s.loadTeacher(ctx, teacherID)
	if err != nil {
		return nil, false, err
	}
	stats, err := s.rawStats(ctx, teacher, from, to)
	if err != nil {
		return nil, false, err
	}
	stats.FixedHours = round1(stats.FixedHours)
	stats.SubstituteHours = round1(stats.SubstituteHours)
	stats.OffsetHours = round1(stats.OffsetHours)
	stats.TotalHours = round1(stats.FixedHours + stats.SubstituteHours + stats.OffsetHours)

	if err := s.cache.Set(ctx, key, stats, s.cacheTTL); err != nil {
		s.logger.Debug("stats cache write failed", zap.Error(err))
	}
	return stats, false, nil
}

// TeamSummary aggregates every active teacher over the range, plus any
// deactivated teacher whose credited hours in the range are non-zero, so a
// mid-range departure does not erase hours already taught. The second return
// reports whether the payload was served from cache.
func (s *WorkloadService) TeamSummary(ctx context.Context, from, to time.Time) (*models.TeamStatsSummary, bool, error) {
	key := teamCacheKey(from, to)
	var cached models.TeamStatsSummary
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	teachers, err := s.teachers.ListAll(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}

	summary := &models.TeamStatsSummary{RangeStart: from, RangeEnd: to}
	for i := range teachers {
		stats, err := s.rawStats(ctx, &teachers[i], from, to)
		if err != nil {
			return nil, false, err
		}
		if teachers[i].Status != models.TeacherActive && stats.FixedHours+stats.SubstituteHours+stats.OffsetHours == 0 {
			continue
		}
		summary.TotalFixedHours += stats.FixedHours
		summary.TotalSubstituteHours += stats.SubstituteHours
		summary.TotalOffsetHours += stats.OffsetHours

		stats.FixedHours = round1(stats.FixedHours)
		stats.SubstituteHours = round1(stats.SubstituteHours)
		stats.OffsetHours = round1(stats.OffsetHours)
		stats.TotalHours = round1(stats.FixedHours + stats.SubstituteHours + stats.OffsetHours)
		summary.Teachers = append(summary.Teachers, *stats)
	}

	summary.TotalFixedHours = round1(summary.TotalFixedHours)
	summary.TotalSubstituteHours = round1(summary.TotalSubstituteHours)
	summary.TotalOffsetHours = round1(summary.TotalOffsetHours)
	summary.TotalHours = round1(summary.TotalFixedHours + summary.TotalSubstituteHours + summary.TotalOffsetHours)

	completed, err := s.classes.CountCompletedByKind(ctx, models.KindSupplementary, from, to)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count supplementary classes")
	}
	summary.CompletedSupplemental = completed

	sort.Slice(summary.Teachers, func(i, j int) bool {
		if summary.Teachers[i].TotalHours == summary.Teachers[j].TotalHours {
			return summary.Teachers[i].TeacherName < summary.Teachers[j].TeacherName
		}
		return summary.Teachers[i].TotalHours > summary.Teachers[j].TotalHours
	})

	if err := s.cache.Set(ctx, key, summary, s.cacheTTL); err != nil {
		s.logger.Debug("stats cache write failed", zap.Error(err))
	}
	return summary, false, nil
}

// PersonalStats is the teacher-facing view: this calendar month's totals
// plus a merged seven-day agenda starting at ref.
func (s *WorkloadService) PersonalStats(ctx context.Context, teacherID string, ref time.Time) (*models.PersonalStats, error) {
	day := truncateDay(ref)
	monthStart := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	month, _, err := s.TeacherStats(ctx, teacherID, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	agendaEnd := day.AddDate(0, 0, agendaDays-1)
	agenda, err := s.agenda(ctx, teacherID, day, agendaEnd)
	if err != nil {
		return nil, err
	}
	return &models.PersonalStats{Month: *month, Agenda: agenda}, nil
}

// agenda merges fixed occurrences with confirmed ad-hoc classes, ordered by
// date then start time. Pending classes are omitted; they are plans, not
// commitments.
func (s *WorkloadService) agenda(ctx context.Context, teacherID string, from, to time.Time) ([]models.AgendaItem, error) {
	occurrences, err := teacherOccurrences(ctx, s.schedules, teacherID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to expand occurrences")
	}

	items := []models.AgendaItem{}
	for _, occ := range occurrences {
		title := "Class"
		if occ.Role == models.RoleScheduleTutor {
			title = "Tutoring session"
		}
		if occ.Substitute {
			title = "Substitute cover"
		}
		items = append(items, models.AgendaItem{
			Date:      occ.Date,
			StartTime: occ.StartTime,
			EndTime:   occ.EndTime,
			Source:    "fixed",
			RefID:     occ.ScheduleID,
			Title:     title,
		})
	}

	classes, err := s.classes.ListByTeacherAndRange(ctx, teacherID, from, to, models.ConfirmedStatuses)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}
	for _, class := range classes {
		items = append(items, models.AgendaItem{
			Date:      truncateDay(class.ScheduledDate),
			StartTime: class.StartTime,
			EndTime:   class.EndTime,
			Source:    "adhoc",
			RefID:     class.ID,
			Title:     class.ClassName,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Date.Equal(items[j].Date) {
			return items[i].StartTime < items[j].StartTime
		}
		return items[i].Date.Before(items[j].Date)
	})
	return items, nil
}

func (s *WorkloadService) loadTeacher(ctx context.Context, teacherID string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}
