// Package scrum holds the event and task workflows: validation, ownership
// scoping, the task edit lock and the real-time fan-out of every change.
package scrum

import (
	"errors"
	"sort"
	"strings"
	"time"
)

var (
	ErrTaskLocked  = errors.New("task is locked because its event is done")
	ErrAdminTarget = errors.New("admin accounts cannot be managed from the admin panel")
)

// Caller is the signed-in user a workflow runs on behalf of.
type Caller struct {
	UserID  string
	IsAdmin bool
}

// ValidationError maps form fields to the messages shown next to them.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

// EventInput carries the editable fields of an event.
type EventInput struct {
	Title       string
	Description string
	StartDate   time.Time
	EndDate     time.Time
}

// TaskInput carries the editable fields of a task.
type TaskInput struct {
	EventID     int64
	Title       string
	Description string
	StartDate   time.Time
	EndDate     time.Time
}

func validateWindow(errs fieldErrors, title string, start, end time.Time) {
	if strings.TrimSpace(title) == "" {
		errs.add("title", "Title is required.")
	}
	if start.IsZero() {
		errs.add("startDate", "Start date is required.")
	}
	if end.IsZero() {
		errs.add("endDate", "End date is required.")
	}
	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		errs.add("endDate", "End date must be later than start date.")
	}
}

func (in EventInput) validate() error {
	errs := fieldErrors{}
	validateWindow(errs, in.Title, in.StartDate, in.EndDate)
	return errs.err()
}
