package service

import (
	"fmt"
	"time"

	"github.com/rosterly/staffing-api/internal/models"
	"github.com/rosterly/staffing-api/pkg/timeutil"
)

const dateLayout = "2006-01-02"

var weekdayNames = map[time.Weekday]models.Weekday{
	time.Sunday:    models.Sunday,
	time.Monday:    models.Monday,
	time.Tuesday:   models.Tuesday,
	time.Wednesday: models.Wednesday,
	time.Thursday:  models.Thursday,
	time.Friday:    models.Friday,
	time.Saturday:  models.Saturday,
}

func dateKey(t time.Time) string {
	return t.Format(dateLayout)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ExpandOccurrences materialises every concrete occurrence of the given
// schedules inside [from, to], both dates inclusive. Each schedule only emits
// within the intersection of the query range and its own validity window. A
// leave on a date removes that occurrence for the scheduled teacher; when the
// leave names a substitute, the occurrence is re-emitted under the substitute
// with the substitute flag set. Hours carry the schedule role's weighting.
func ExpandOccurrences(schedules []models.FixedSchedule, leaves []models.FixedScheduleLeave, from, to time.Time) ([]models.Occurrence, error) {
	from = truncateDay(from)
	to = truncateDay(to)
	if to.Before(from) {
		return nil, nil
	}

	leavesBySchedule := make(map[string]map[string]*models.FixedScheduleLeave)
	for i := range leaves {
		leave := &leaves[i]
		byDate, ok := leavesBySchedule[leave.FixedScheduleID]
		if !ok {
			byDate = make(map[string]*models.FixedScheduleLeave)
			leavesBySchedule[leave.FixedScheduleID] = byDate
		}
		byDate[dateKey(leave.Date)] = leave
	}

	var occurrences []models.Occurrence
	for i := range schedules {
		schedule := &schedules[i]
		if !schedule.IsActive {
			continue
		}
		duration, err := timeutil.DurationHours(schedule.StartTime, schedule.EndTime)
		if err != nil {
			return nil, fmt.Errorf("expand schedule %s: %w", schedule.ID, err)
		}
		hours := duration * schedule.Role.HourMultiplier()

		start, end := from, to
		if schedule.StartDate != nil && truncateDay(*schedule.StartDate).After(start) {
			start = truncateDay(*schedule.StartDate)
		}
		if schedule.EndDate != nil && truncateDay(*schedule.EndDate).Before(end) {
			end = truncateDay(*schedule.EndDate)
		}

		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			if weekdayNames[day.Weekday()] != schedule.DayOfWeek {
				continue
			}
			occurrence := models.Occurrence{
				ScheduleID: schedule.ID,
				TeacherID:  schedule.TeacherID,
				Date:       day,
				StartTime:  schedule.StartTime,
				EndTime:    schedule.EndTime,
				Role:       schedule.Role,
				Hours:      hours,
			}
			if leave, ok := leavesBySchedule[schedule.ID][dateKey(day)]; ok {
				if leave.SubstituteTeacherID == nil || *leave.SubstituteTeacherID == "" {
					continue
				}
				occurrence.TeacherID = *leave.SubstituteTeacherID
				occurrence.Substitute = true
			}
			occurrences = append(occurrences, occurrence)
		}
	}
	return occurrences, nil
}
