package models

import "time"

// TeacherStats aggregates credited teaching hours for one teacher over a
// date range. Components are rounded to one decimal for display.
type TeacherStats struct {
	TeacherID       string  `json:"teacher_id"`
	TeacherName     string  `json:"teacher_name"`
	FixedHours      float64 `json:"fixed_hours"`
	SubstituteHours float64 `json:"substitute_hours"`
	OffsetHours     float64 `json:"offset_hours"`
	TotalHours      float64 `json:"total_hours"`
	FixedCount      int     `json:"fixed_count"`
	SubstituteCount int     `json:"substitute_count"`
	AdHocCount      int     `json:"adhoc_count"`
}

// TeamStatsSummary sums per-teacher components across the whole pool.
type TeamStatsSummary struct {
	RangeStart            time.Time      `json:"range_start"`
	RangeEnd              time.Time      `json:"range_end"`
	Teachers              []TeacherStats `json:"teachers"`
	TotalFixedHours       float64        `json:"total_fixed_hours"`
	TotalSubstituteHours  float64        `json:"total_substitute_hours"`
	TotalOffsetHours      float64        `json:"total_offset_hours"`
	TotalHours            float64        `json:"total_hours"`
	CompletedSupplemental int            `json:"completed_supplementary_count"`
}

// AgendaItem is one entry in the forward-looking merged agenda: either a
// fixed occurrence or a confirmed ad-hoc class.
type AgendaItem struct {
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Source    string    `json:"source"` // "fixed" or "adhoc"
	RefID     string    `json:"ref_id"`
	Title     string    `json:"title"`
}

// PersonalStats is the "my stats" view: current-month totals plus the
// seven-day agenda starting at the reference date.
type PersonalStats struct {
	Month  TeacherStats `json:"month"`
	Agenda []AgendaItem `json:"agenda"`
}

// FreeSlot is an assignable free interval within a queried window.
type FreeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SystemMetrics is a point-in-time snapshot of process health counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
