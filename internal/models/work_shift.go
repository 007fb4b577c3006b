package models

import "time"

// WorkShift is a named time-of-day bucket ("Morning", "Afternoon") used for
// UI grouping and availability declaration. It supplies display windows only
// and plays no part in allocation decisions.
type WorkShift struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	SortOrder int       `db:"sort_order" json:"sort_order"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
