package domain

import "time"

const (
	TaskTitleMaxLen = 500
	MaxTasksPerDay  = 5
)

// Task is one actionable item of a user's daily plan.
type Task struct {
	ID        TaskID
	UserID    UserID
	Title     string
	Completed bool
	CreatedAt Timestamp
}

// DayWindow is the half-open [Start, End) interval of one calendar day.
type DayWindow struct {
	Start time.Time
	End   time.Time
}

// DayOf returns the calendar day containing t in loc.
func DayOf(t time.Time, loc *time.Location) DayWindow {
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	return DayWindow{Start: start, End: start.AddDate(0, 0, 1)}
}

// Contains reports whether t falls inside the window.
func (w DayWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}
