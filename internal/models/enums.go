package models

import "strings"

// Weekday names a day of week for recurring schedules. Matching is by name
// only; the expander never assumes a first-day-of-week convention.
type Weekday string

const (
	Sunday    Weekday = "SUNDAY"
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
)

// ParseWeekday normalises raw input into a Weekday, reporting validity.
func ParseWeekday(raw string) (Weekday, bool) {
	day := Weekday(strings.ToUpper(strings.TrimSpace(raw)))
	switch day {
	case Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday:
		return day, true
	}
	return "", false
}

// EmploymentRole distinguishes contract types for allocation priority.
type EmploymentRole string

const (
	EmploymentFulltime EmploymentRole = "fulltime"
	EmploymentParttime EmploymentRole = "parttime"
)

// TeacherStatus is the lifecycle state of a teacher record.
type TeacherStatus string

const (
	TeacherActive   TeacherStatus = "active"
	TeacherInactive TeacherStatus = "inactive"
	TeacherOnLeave  TeacherStatus = "on_leave"
)

// ScheduleRole describes how a fixed schedule counts toward workload. The
// tutor role is weighted at 0.75 of clock time for compensation purposes.
type ScheduleRole string

const (
	RoleScheduleTeacher ScheduleRole = "teacher"
	RoleScheduleTutor   ScheduleRole = "tutor"
)

// TutorHourMultiplier weights tutor-role hours when aggregating workload.
const TutorHourMultiplier = 0.75

// HourMultiplier returns the workload weighting for the role.
func (r ScheduleRole) HourMultiplier() float64 {
	if r == RoleScheduleTutor {
		return TutorHourMultiplier
	}
	return 1.0
}

// ClassKind tags the business origin of an ad-hoc class. All kinds share one
// shape and one allocation code path; labels differ only at the boundary.
type ClassKind string

const (
	KindOffset        ClassKind = "offset"
	KindSupplementary ClassKind = "supplementary"
	KindTest          ClassKind = "test"
)

// Label returns the display name for the kind.
func (k ClassKind) Label() string {
	switch k {
	case KindOffset:
		return "Offset Class"
	case KindSupplementary:
		return "Supplementary Class"
	case KindTest:
		return "Test Class"
	}
	return string(k)
}

// ClassStatus is the lifecycle state of an ad-hoc class.
type ClassStatus string

const (
	StatusPending   ClassStatus = "pending"
	StatusAssigned  ClassStatus = "assigned"
	StatusCompleted ClassStatus = "completed"
	StatusCancelled ClassStatus = "cancelled"
)

// classTransitions is the single source of truth for allowed status moves:
// pending<->assigned on (de)assignment, assigned->completed, any->cancelled.
// completed and cancelled are terminal.
var classTransitions = map[ClassStatus][]ClassStatus{
	StatusPending:  {StatusAssigned, StatusCancelled},
	StatusAssigned: {StatusPending, StatusCompleted, StatusCancelled},
}

// CanTransition reports whether moving from the current status to next is a
// legal state-machine step.
func (s ClassStatus) CanTransition(next ClassStatus) bool {
	for _, allowed := range classTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status permits no further mutation.
func (s ClassStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ConfirmedStatuses are the statuses that occupy a teacher's time for
// conflict checking. Pending classes never block availability.
var ConfirmedStatuses = []ClassStatus{StatusAssigned, StatusCompleted}

// WorkloadStatuses are the statuses counted into workload statistics. Pending
// is included so planned load is visible alongside realised load.
var WorkloadStatuses = []ClassStatus{StatusPending, StatusAssigned, StatusCompleted}
