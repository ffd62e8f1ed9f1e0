// Package calendar renders events and tasks as an iCalendar feed.
package calendar

import (
	"fmt"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/adanyl0v/go-scrum/internal/models"
)

const (
	ProductID = "-//go-scrum//Scrum board//EN"

	CategoryEvent = "Event"
	CategoryTask  = "Task"
)

func EventUID(id int64, domain string) string {
	return fmt.Sprintf("event-%d@%s", id, domain)
}

func TaskUID(id int64, domain string) string {
	return fmt.Sprintf("task-%d@%s", id, domain)
}

// Build returns a calendar holding one VEVENT per event and per task.
// Tasks point at their event through RELATED-TO. Owner names are only
// included when withOwner is set.
func Build(name, domain string, events []*models.Event, tasks []*models.Task, withOwner bool, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetXWRCalName(name)

	for _, e := range events {
		ve := cal.AddEvent(EventUID(e.ID, domain))
		fill(ve, e.Title, e.Description, e.OwnerName, e.StartDate, e.EndDate, e.IsDone, withOwner, now)
		ve.SetModifiedAt(e.UpdatedAt)
		ve.AddProperty(ical.ComponentPropertyCategories, CategoryEvent)
	}

	for _, t := range tasks {
		ve := cal.AddEvent(TaskUID(t.ID, domain))
		fill(ve, t.Title, t.Description, t.OwnerName, t.StartDate, t.EndDate, t.IsDone, withOwner, now)
		ve.SetModifiedAt(t.UpdatedAt)
		ve.AddProperty(ical.ComponentPropertyCategories, CategoryTask)
		ve.AddProperty(ical.ComponentPropertyRelatedTo, EventUID(t.EventID, domain))
		ve.AddProperty(ical.ComponentProperty("X-SCRUM-LOCK"), string(t.LockState()))
	}

	return cal
}

func fill(ve *ical.VEvent, title, description, owner string, start, end time.Time, done, withOwner bool, now time.Time) {
	ve.SetDtStampTime(now)
	ve.SetStartAt(start)
	ve.SetEndAt(end)
	ve.SetSummary(title)
	if description != "" {
		ve.SetDescription(description)
	}
	if withOwner && owner != "" {
		ve.AddProperty(ical.ComponentProperty("X-SCRUM-OWNER"), owner)
	}
	ve.AddProperty(ical.ComponentProperty("X-SCRUM-DONE"), strconv.FormatBool(done))
}
