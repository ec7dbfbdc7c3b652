package model

import "time"

// Repeat is how often a task recurs.
type Repeat string

const (
	RepeatNever   Repeat = "never"
	RepeatDaily   Repeat = "daily"
	RepeatWeekly  Repeat = "weekly"
	RepeatMonthly Repeat = "monthly"
)

const (
	CategoryPersonal = "Personal"
	CategoryWork     = "Work"
	CategoryShopping = "Shopping"
	CategoryHealth   = "Health"
	CategoryFinance  = "Finance"
)

// Valid reports whether r is one of the known cadences.
func (r Repeat) Valid() bool {
	switch r {
	case RepeatNever, RepeatDaily, RepeatWeekly, RepeatMonthly:
		return true
	}
	return false
}

// Task is a single to-do entry. Completed tasks keep their due and creation
// timestamps so completion history can be learned from them.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Category    string     `json:"category,omitempty"`
	Due         *time.Time `json:"dueDate,omitempty"`
	HasTime     bool       `json:"hasTime"`
	Repeat      Repeat     `json:"repeat,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	Order       int        `json:"order"`
	ArchiveAt   *time.Time `json:"scheduledArchiveTime,omitempty"`
	ArchivedAt  *time.Time `json:"archivedDate,omitempty"`
}

// IsRepeating reports whether the task has a cadence other than never.
func (t *Task) IsRepeating() bool {
	return t.Repeat != "" && t.Repeat != RepeatNever
}

// IsTimed reports whether the task has a due date with a meaningful clock time.
func (t *Task) IsTimed() bool {
	return t.Due != nil && t.HasTime
}

// Interval returns the busy interval occupied by the task, or false when it has no due date.
func (t *Task) Interval(minutes int) (Interval, bool) {
	if t.Due == nil {
		return Interval{}, false
	}
	start := *t.Due
	return Interval{Start: start, End: start.Add(time.Duration(minutes) * time.Minute)}, true
}
