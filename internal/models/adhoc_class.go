package models

import (
	"time"

	"github.com/lib/pq"
)

// AdHocClass is a one-off class requiring teacher assignment. Offset,
// supplementary and test classes share this shape; Kind carries the business
// origin. Test classes may reference a bare subject instead of a level.
//
// AssignedHistory is an append-only audit log of every teacher previously
// assigned; reallocation consults it as a set to avoid immediately re-picking
// a removed teacher. Version guards assignment against concurrent writers.
type AdHocClass struct {
	ID                string         `db:"id" json:"id"`
	Kind              ClassKind      `db:"kind" json:"kind"`
	ClassName         string         `db:"class_name" json:"class_name"`
	SubjectLevelID    *string        `db:"subject_level_id" json:"subject_level_id,omitempty"`
	SubjectID         *string        `db:"subject_id" json:"subject_id,omitempty"`
	ScheduledDate     time.Time      `db:"scheduled_date" json:"scheduled_date"`
	StartTime         string         `db:"start_time" json:"start_time"`
	EndTime           string         `db:"end_time" json:"end_time"`
	AssignedTeacherID *string        `db:"assigned_teacher_id" json:"assigned_teacher_id,omitempty"`
	Status            ClassStatus    `db:"status" json:"status"`
	AssignedHistory   pq.StringArray `db:"assigned_history" json:"assigned_history"`
	MeetingLink       *string        `db:"meeting_link" json:"meeting_link,omitempty"`
	Notes             *string        `db:"notes" json:"notes,omitempty"`
	Version           int            `db:"version" json:"version"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// EverAssigned reports whether the teacher id appears in the assignment
// history or is the current assignee.
func (c *AdHocClass) EverAssigned(teacherID string) bool {
	if c.AssignedTeacherID != nil && *c.AssignedTeacherID == teacherID {
		return true
	}
	for _, id := range c.AssignedHistory {
		if id == teacherID {
			return true
		}
	}
	return false
}

// AdHocClassFilter captures list query options for ad-hoc classes.
type AdHocClassFilter struct {
	Kind              *ClassKind
	AssignedTeacherID string
	SubjectLevelID    string
	Statuses          []ClassStatus
	DateFrom          *time.Time
	DateTo            *time.Time
	Page              int
	PageSize          int
	SortBy            string
	SortOrder         string
}
