package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rosterly/staffing-api/internal/models"
	appErrors "github.com/rosterly/staffing-api/pkg/errors"
	"github.com/rosterly/staffing-api/pkg/timeutil"
)

type scheduleSource interface {
	List(ctx context.Context, filter models.FixedScheduleFilter) ([]models.FixedSchedule, error)
	FindByID(ctx context.Context, id string) (*models.FixedSchedule, error)
	ListLeaves(ctx context.Context, filter models.LeaveFilter) ([]models.FixedScheduleLeave, error)
}

type availabilityClassRepo interface {
	ListByTeacherAndDate(ctx context.Context, teacherID string, date time.Time, statuses []models.ClassStatus) ([]models.AdHocClass, error)
}

// teacherOccurrences loads everything a teacher actually teaches in [from, to]:
// their own occurrences minus leave days, plus any occurrences they cover as a
// substitute for someone else's leave.
func teacherOccurrences(ctx context.Context, repo scheduleSource, teacherID string, from, to time.Time) ([]models.Occurrence, error) {
	own, err := repo.List(ctx, models.FixedScheduleFilter{TeacherID: teacherID, ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	ownLeaves, err := repo.ListLeaves(ctx, models.LeaveFilter{TeacherID: teacherID, DateFrom: &from, DateTo: &to})
	if err != nil {
		return nil, err
	}
	occurrences, err := ExpandOccurrences(own, ownLeaves, from, to)
	if err != nil {
		return nil, err
	}
	kept := occurrences[:0]
	for _, occ := range occurrences {
		if occ.TeacherID == teacherID {
			kept = append(kept, occ)
		}
	}
	occurrences = kept

	coverLeaves, err := repo.ListLeaves(ctx, models.LeaveFilter{SubstituteTeacherID: teacherID, DateFrom: &from, DateTo: &to})
	if err != nil {
		return nil, err
	}
	if len(coverLeaves) == 0 {
		return occurrences, nil
	}

	covered := make(map[string]*models.FixedSchedule)
	var coveredSchedules []models.FixedSchedule
	for _, leave := range coverLeaves {
		if _, seen := covered[leave.FixedScheduleID]; seen {
			continue
		}
		schedule, err := repo.FindByID(ctx, leave.FixedScheduleID)
		if err != nil {
			return nil, err
		}
		covered[leave.FixedScheduleID] = schedule
		coveredSchedules = append(coveredSchedules, *schedule)
	}
	coverOccurrences, err := ExpandOccurrences(coveredSchedules, coverLeaves, from, to)
	if err != nil {
		return nil, err
	}
	for _, occ := range coverOccurrences {
		if occ.Substitute && occ.TeacherID == teacherID {
			occurrences = append(occurrences, occ)
		}
	}
	return occurrences, nil
}

// busyInterval is a committed block of a teacher's day in minutes from
// midnight, half open.
type busyInterval struct {
	start int
	end   int
}

// AvailabilityService answers where a teacher's day is free. Busy blocks are
// fixed occurrences (leave days excluded, substitute duties included) plus
// ad-hoc classes in assigned or completed status; pending classes never block.
type AvailabilityService struct {
	schedules scheduleSource
	classes   availabilityClassRepo
	dayStart  string
	dayEnd    string
	logger    *zap.Logger
}

// NewAvailabilityService constructs an AvailabilityService. dayStart and
// dayEnd bound the assignable working day as HH:MM strings.
func NewAvailabilityService(schedules scheduleSource, classes availabilityClassRepo, dayStart, dayEnd string, logger *zap.Logger) *AvailabilityService {
	if dayStart == "" {
		dayStart = "07:00"
	}
	if dayEnd == "" {
		dayEnd = "21:00"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{schedules: schedules, classes: classes, dayStart: dayStart, dayEnd: dayEnd, logger: logger}
}

func (s *AvailabilityService) busyIntervals(ctx context.Context, teacherID string, date time.Time, excludeClassID string) ([]busyInterval, error) {
	day := truncateDay(date)
	occurrences, err := teacherOccurrences(ctx, s.schedules, teacherID, day, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fixed occurrences")
	}

	var intervals []busyInterval
	for _, occ := range occurrences {
		start, err := timeutil.ToMinutes(occ.StartTime)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule time")
		}
		end, err := timeutil.ToMinutes(occ.EndTime)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule time")
		}
		intervals = append(intervals, busyInterval{start: start, end: end})
	}

	classes, err := s.classes.ListByTeacherAndDate(ctx, teacherID, day, models.ConfirmedStatuses)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}
	for _, class := range classes {
		if excludeClassID != "" && class.ID == excludeClassID {
			continue
		}
		start, err := timeutil.ToMinutes(class.StartTime)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class time")
		}
		end, err := timeutil.ToMinutes(class.EndTime)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class time")
		}
		intervals = append(intervals, busyInterval{start: start, end: end})
	}

	sort.Slice(intervals, func(i, j int) bool {
		if intervals[i].start == intervals[j].start {
			return intervals[i].end < intervals[j].end
		}
		return intervals[i].start < intervals[j].start
	})
	return mergeIntervals(intervals), nil
}

// mergeIntervals coalesces sorted intervals that overlap or touch.
func mergeIntervals(sorted []busyInterval) []busyInterval {
	if len(sorted) == 0 {
		return sorted
	}
	merged := sorted[:1]
	for _, next := range sorted[1:] {
		last := &merged[len(merged)-1]
		if next.start <= last.end {
			if next.end > last.end {
				last.end = next.end
			}
			continue
		}
		merged = append(merged, next)
	}
	return merged
}

// IsWindowFree reports whether the teacher has no committed block overlapping
// [startTime, endTime) on the date. excludeClassID ignores one class, used
// when re-checking a class's own current assignee.
func (s *AvailabilityService) IsWindowFree(ctx context.Context, teacherID string, date time.Time, startTime, endTime, excludeClassID string) (bool, error) {
	start, err := timeutil.ToMinutes(startTime)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}
	end, err := timeutil.ToMinutes(endTime)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end time")
	}
	if end <= start {
		return false, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}

	intervals, err := s.busyIntervals(ctx, teacherID, date, excludeClassID)
	if err != nil {
		return false, err
	}
	for _, busy := range intervals {
		if timeutil.Overlaps(start, end, busy.start, busy.end) {
			return false, nil
		}
	}
	return true, nil
}

// FreeSlots returns the gaps of at least the significant-gap length between a
// teacher's commitments on one date, clipped to [windowStart, windowEnd).
// Empty bounds fall back to the configured working day.
func (s *AvailabilityService) FreeSlots(ctx context.Context, teacherID string, date time.Time, windowStart, windowEnd string) ([]models.FreeSlot, error) {
	if windowStart == "" {
		windowStart = s.dayStart
	}
	if windowEnd == "" {
		windowEnd = s.dayEnd
	}
	dayStart, err := timeutil.ToMinutes(windowStart)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid window start")
	}
	dayEnd, err := timeutil.ToMinutes(windowEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid window end")
	}
	if dayEnd <= dayStart {
		return nil, appErrors.Clone(appErrors.ErrValidation, "window end must be after window start")
	}

	intervals, err := s.busyIntervals(ctx, teacherID, date, "")
	if err != nil {
		return nil, err
	}

	slots := []models.FreeSlot{}
	cursor := dayStart
	for _, busy := range intervals {
		if busy.end <= dayStart || busy.start >= dayEnd {
			continue
		}
		if busy.start-cursor >= timeutil.MinSignificantGapMinutes {
			slots = append(slots, models.FreeSlot{Start: timeutil.FormatMinutes(cursor), End: timeutil.FormatMinutes(busy.start)})
		}
		if busy.end > cursor {
			cursor = busy.end
		}
	}
	if dayEnd-cursor >= timeutil.MinSignificantGapMinutes {
		slots = append(slots, models.FreeSlot{Start: timeutil.FormatMinutes(cursor), End: timeutil.FormatMinutes(dayEnd)})
	}
	return slots, nil
}
