package models

import "time"

// Task is a work item nested within the time window of its event.
type Task struct {
	ID          int64
	EventID     int64
	OwnerID     string
	OwnerName   string
	Title       string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	IsDone      bool
	// EventDone mirrors the completion flag of the parent event at read time.
	EventDone bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LockState tells whether a task may still be edited.
// It is never stored: it follows the parent event's completion flag.
type LockState string

const (
	LockEditable LockState = "editable"
	LockLocked   LockState = "locked"
)

func LockStateFor(eventDone bool) LockState {
	if eventDone {
		return LockLocked
	}
	return LockEditable
}

func (t *Task) LockState() LockState {
	return LockStateFor(t.EventDone)
}

func (t *Task) Locked() bool {
	return t.LockState() == LockLocked
}
