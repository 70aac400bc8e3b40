package model

// Chore is a recurring household task.
type Chore struct {
	ID           int64   `db:"id" json:"id" yaml:"id"`
	Name         string  `db:"name" json:"name" yaml:"name"`
	IntervalDays int     `db:"interval_days" json:"interval_days" yaml:"interval_days"`
	DueDate      Date    `db:"due_date" json:"due_date" yaml:"due_date"`
	Done         bool    `db:"done" json:"done" yaml:"done"`
	DoneBy       *string `db:"done_by" json:"done_by" yaml:"done_by"`
	LastDone     *Date   `db:"last_done" json:"last_done" yaml:"last_done"`
	Archived     bool    `db:"archived" json:"archived" yaml:"archived"`
	OwnerEmail   *string `db:"owner_email" json:"owner_email" yaml:"owner_email"`
	IsPrivate    bool    `db:"is_private" json:"is_private" yaml:"is_private"`
}

// ScheduleRow is the raw (due_date, interval_days) pair read for health
// scoring. DueDate is left unparsed so malformed rows can be skipped rather
// than failing the whole query.
type ScheduleRow struct {
	DueDate      string `db:"due_date"`
	IntervalDays int    `db:"interval_days"`
}

// Counts buckets active chores by due date relative to today.
type Counts struct {
	All      int `json:"all"`
	Overdue  int `json:"overdue"`
	Today    int `json:"today"`
	Tomorrow int `json:"tomorrow"`
	ThisWeek int `json:"thisWeek"`
	Upcoming int `json:"upcoming"`
}
