package models

import "time"

// Event is a time-boxed Scrum activity owning zero or more tasks.
type Event struct {
	ID          int64
	OwnerID     string
	OwnerName   string
	Title       string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	IsDone      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Contains reports whether [start, end] lies inside the event window.
func (e *Event) Contains(start, end time.Time) bool {
	return !start.Before(e.StartDate) && !end.After(e.EndDate)
}
