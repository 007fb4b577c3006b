package models

import "time"

// FixedSchedule is a recurring weekly teaching commitment for one teacher.
// Times are zero-padded HH:MM wall-clock strings with StartTime < EndTime.
// StartDate/EndDate bound the validity window when present; IsActive soft
// disables the schedule without destroying historical occurrences.
type FixedSchedule struct {
	ID             string       `db:"id" json:"id"`
	TeacherID      string       `db:"teacher_id" json:"teacher_id"`
	SubjectLevelID string       `db:"subject_level_id" json:"subject_level_id"`
	DayOfWeek      Weekday      `db:"day_of_week" json:"day_of_week"`
	StartTime      string       `db:"start_time" json:"start_time"`
	EndTime        string       `db:"end_time" json:"end_time"`
	StartDate      *time.Time   `db:"start_date" json:"start_date,omitempty"`
	EndDate        *time.Time   `db:"end_date" json:"end_date,omitempty"`
	Role           ScheduleRole `db:"role" json:"role"`
	IsActive       bool         `db:"is_active" json:"is_active"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}

// FixedScheduleLeave cancels one concrete occurrence of a fixed schedule.
// At most one leave exists per (schedule, date); deleting the leave restores
// the occurrence. SubstituteTeacherID credits a covering teacher with the
// occurrence hours.
type FixedScheduleLeave struct {
	ID                  string    `db:"id" json:"id"`
	FixedScheduleID     string    `db:"fixed_schedule_id" json:"fixed_schedule_id"`
	Date                time.Time `db:"date" json:"date"`
	Reason              *string   `db:"reason" json:"reason,omitempty"`
	SubstituteTeacherID *string   `db:"substitute_teacher_id" json:"substitute_teacher_id,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}

// FixedScheduleFilter captures list query options for fixed schedules.
type FixedScheduleFilter struct {
	TeacherID      string
	SubjectLevelID string
	DayOfWeek      *Weekday
	ActiveOnly     bool
}

// LeaveFilter captures list query options for leave records.
type LeaveFilter struct {
	FixedScheduleID     string
	TeacherID           string
	SubstituteTeacherID string
	DateFrom            *time.Time
	DateTo              *time.Time
}

// Occurrence is one concrete calendar-date instance of a fixed schedule.
// TeacherID names whoever actually teaches it, which is the substitute when
// the scheduled teacher took leave and a cover was named.
type Occurrence struct {
	ScheduleID string       `json:"schedule_id"`
	TeacherID  string       `json:"teacher_id"`
	Date       time.Time    `json:"date"`
	StartTime  string       `json:"start_time"`
	EndTime    string       `json:"end_time"`
	Role       ScheduleRole `json:"role"`
	Hours      float64      `json:"hours"`
	Substitute bool         `json:"substitute"`
}
