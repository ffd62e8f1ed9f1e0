package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-scrum/internal/calendar"
)

// feedLayout is the local timestamp format calendar widgets consume.
const feedLayout = "2006-01-02T15:04:05"

type feedItem struct {
	ID          int64  `json:"id"`
	EventID     int64  `json:"eventId,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Start       string `json:"start"`
	End         string `json:"end"`
	IsDone      bool   `json:"isDone"`
	UserName    string `json:"userName,omitempty"`
}

func (h *handlerImpl) feedTime(t time.Time) string {
	return t.In(h.loc).Format(feedLayout)
}

func (h *handlerImpl) HandleEventsFeed(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	events, err := h.events.List(c, caller)
	if err != nil {
		h.respondError(c, err, "failed to get events feed")
		return
	}

	items := make([]feedItem, 0, len(events))
	for _, e := range events {
		item := feedItem{
			ID:          e.ID,
			Title:       e.Title,
			Description: e.Description,
			Start:       h.feedTime(e.StartDate),
			End:         h.feedTime(e.EndDate),
			IsDone:      e.IsDone,
		}
		if caller.IsAdmin {
			item.UserName = e.OwnerName
		}
		items = append(items, item)
	}

	c.JSON(http.StatusOK, items)
}

func (h *handlerImpl) HandleTasksFeed(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	tasks, err := h.tasks.List(c, caller)
	if err != nil {
		h.respondError(c, err, "failed to get tasks feed")
		return
	}

	items := make([]feedItem, 0, len(tasks))
	for _, t := range tasks {
		item := feedItem{
			ID:          t.ID,
			EventID:     t.EventID,
			Title:       t.Title,
			Description: t.Description,
			Start:       h.feedTime(t.StartDate),
			End:         h.feedTime(t.EndDate),
			IsDone:      t.IsDone,
		}
		if caller.IsAdmin {
			item.UserName = t.OwnerName
		}
		items = append(items, item)
	}

	c.JSON(http.StatusOK, items)
}

// HandleCalendar exports the caller's events and tasks as iCalendar.
func (h *handlerImpl) HandleCalendar(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	events, err := h.events.List(c, caller)
	if err != nil {
		h.respondError(c, err, "failed to get calendar events")
		return
	}
	tasks, err := h.tasks.List(c, caller)
	if err != nil {
		h.respondError(c, err, "failed to get calendar tasks")
		return
	}

	cal := calendar.Build(h.calendarName, h.calendarDomain, events, tasks, caller.IsAdmin, time.Now())

	c.Header("Content-Disposition", `attachment; filename="scrum.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(cal.Serialize()))
}
