package models

import "time"

// Teacher represents an instructor record.
type Teacher struct {
	ID               string         `db:"id" json:"id"`
	FullName         string         `db:"full_name" json:"full_name"`
	Email            string         `db:"email" json:"email"`
	Phone            *string        `db:"phone" json:"phone,omitempty"`
	EmploymentRole   EmploymentRole `db:"employment_role" json:"employment_role"`
	Status           TeacherStatus  `db:"status" json:"status"`
	MaxOffsetClasses int            `db:"max_offset_classes" json:"max_offset_classes"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// Active reports whether the teacher may receive new assignments.
func (t *Teacher) Active() bool {
	return t != nil && t.Status == TeacherActive
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Status    *TeacherStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// TeacherLevel links a teacher to a subject level they are qualified to
// teach. Allocation filters candidates by membership of this table.
type TeacherLevel struct {
	ID             string    `db:"id" json:"id"`
	TeacherID      string    `db:"teacher_id" json:"teacher_id"`
	SubjectLevelID string    `db:"subject_level_id" json:"subject_level_id"`
	Certifications *string   `db:"certifications" json:"certifications,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
