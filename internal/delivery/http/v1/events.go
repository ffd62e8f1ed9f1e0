package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-scrum/internal/models"
	"github.com/adanyl0v/go-scrum/internal/scrum"
)

const (
	handlerToggleDone = "ToggleDone"
	handlerDelete     = "Delete"
)

type eventRequest struct {
	Title       string `json:"title" form:"title" binding:"max=255"`
	Description string `json:"description" form:"description" binding:"max=4000"`
	StartDate   string `json:"startDate" form:"startDate"`
	EndDate     string `json:"endDate" form:"endDate"`
}

func (r eventRequest) input(h *handlerImpl) (scrum.EventInput, error) {
	start, end, err := parseWindow(r.Title, r.StartDate, r.EndDate, h.loc)
	if err != nil {
		return scrum.EventInput{}, err
	}
	return scrum.EventInput{
		Title:       r.Title,
		Description: r.Description,
		StartDate:   start,
		EndDate:     end,
	}, nil
}

func (h *handlerImpl) eventDTOs(caller scrum.Caller, events []*models.Event) []scrum.EventDTO {
	dtos := make([]scrum.EventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, scrum.NewEventDTO(e, caller.IsAdmin, h.loc))
	}
	return dtos
}

func (h *handlerImpl) HandleGetEvents(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	events, err := h.events.List(c, caller)
	if err != nil {
		h.respondError(c, err, "failed to get events")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"isAdmin": caller.IsAdmin,
		"events":  h.eventDTOs(caller, events),
	})
}

// HandlePostEvents creates an event, or runs the row action named by the
// handler query parameter.
func (h *handlerImpl) HandlePostEvents(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	switch c.Query("handler") {
	case "":
		h.createEvent(c, caller)
	case handlerToggleDone:
		h.toggleEvent(c, caller)
	case handlerDelete:
		h.deleteEvent(c, caller)
	default:
		h.logger.Debug().
			Str("handler", c.Query("handler")).
			Msg("unknown events handler")
		abort(c, newBadRequestError(errUnknownHandler.Error()))
	}
}

func (h *handlerImpl) createEvent(c *gin.Context, caller scrum.Caller) {
	var req eventRequest
	if !h.bindRequest(c, &req) {
		return
	}
	in, err := req.input(h)
	if err != nil {
		h.respondError(c, err, "invalid event dates")
		return
	}

	event, err := h.events.Create(c, caller, in)
	if err != nil {
		h.respondError(c, err, "failed to create event")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Event added.",
		"event":   scrum.NewEventDTO(event, caller.IsAdmin, h.loc),
	})
}

func (h *handlerImpl) toggleEvent(c *gin.Context, caller scrum.Caller) {
	id, ok := h.queryID(c, "id")
	if !ok {
		return
	}

	event, err := h.events.ToggleDone(c, caller, id)
	if err != nil {
		h.respondError(c, err, "failed to toggle event")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Event status changed.",
		"event":   scrum.NewEventDTO(event, caller.IsAdmin, h.loc),
	})
}

func (h *handlerImpl) deleteEvent(c *gin.Context, caller scrum.Caller) {
	id, ok := h.queryID(c, "id")
	if !ok {
		return
	}

	err := h.events.Delete(c, caller, id)
	if err != nil {
		h.respondError(c, err, "failed to delete event")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event deleted."})
}

func (h *handlerImpl) HandleGetEvent(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	event, err := h.events.Get(c, caller, id)
	if err != nil {
		h.respondError(c, err, "failed to get event")
		return
	}

	c.JSON(http.StatusOK, scrum.NewEventDTO(event, caller.IsAdmin, h.loc))
}

func (h *handlerImpl) HandleEditEvent(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req eventRequest
	if !h.bindRequest(c, &req) {
		return
	}
	in, err := req.input(h)
	if err != nil {
		h.respondError(c, err, "invalid event dates")
		return
	}

	event, err := h.events.Update(c, caller, id, in)
	if err != nil {
		h.respondError(c, err, "failed to update event")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Event updated.",
		"event":   scrum.NewEventDTO(event, caller.IsAdmin, h.loc),
	})
}

func (h *handlerImpl) pathID(c *gin.Context) (int64, bool) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("invalid path id")
		abort(c, newBadRequestError(errInvalidID.Error()))
		return 0, false
	}
	return id, true
}

func (h *handlerImpl) queryID(c *gin.Context, key string) (int64, bool) {
	id, err := parseID(c.Query(key))
	if err != nil {
		h.logger.Debug().
			Err(err).
			Str("key", key).
			Msg("invalid query id")
		abort(c, newBadRequestError(errInvalidID.Error()))
		return 0, false
	}
	return id, true
}
