package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-scrum/internal/models"
	"github.com/adanyl0v/go-scrum/internal/scrum"
)

type taskRequest struct {
	EventID     int64  `json:"eventId" form:"eventId"`
	Title       string `json:"title" form:"title" binding:"max=255"`
	Description string `json:"description" form:"description" binding:"max=4000"`
	StartDate   string `json:"startDate" form:"startDate"`
	EndDate     string `json:"endDate" form:"endDate"`
}

func (r taskRequest) input(h *handlerImpl) (scrum.TaskInput, error) {
	start, end, err := parseWindow(r.Title, r.StartDate, r.EndDate, h.loc)
	if err != nil {
		return scrum.TaskInput{}, err
	}
	return scrum.TaskInput{
		EventID:     r.EventID,
		Title:       r.Title,
		Description: r.Description,
		StartDate:   start,
		EndDate:     end,
	}, nil
}

func (h *handlerImpl) taskDTOs(caller scrum.Caller, tasks []*models.Task) []scrum.TaskDTO {
	dtos := make([]scrum.TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		dtos = append(dtos, scrum.NewTaskDTO(t, caller.IsAdmin, h.loc))
	}
	return dtos
}

// HandleGetTasks lists the visible tasks along with the visible events
// a new task can be attached to.
func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	tasks, err := h.tasks.List(c, caller)
	if err != nil {
		h.respondError(c, err, "failed to get tasks")
		return
	}
	events, err := h.events.List(c, caller)
	if err != nil {
		h.respondError(c, err, "failed to get events")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"isAdmin": caller.IsAdmin,
		"tasks":   h.taskDTOs(caller, tasks),
		"events":  h.eventDTOs(caller, events),
	})
}

func (h *handlerImpl) HandlePostTasks(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	switch c.Query("handler") {
	case "":
		h.createTask(c, caller)
	case handlerToggleDone:
		h.toggleTask(c, caller)
	case handlerDelete:
		h.deleteTask(c, caller)
	default:
		h.logger.Debug().
			Str("handler", c.Query("handler")).
			Msg("unknown tasks handler")
		abort(c, newBadRequestError(errUnknownHandler.Error()))
	}
}

func (h *handlerImpl) createTask(c *gin.Context, caller scrum.Caller) {
	var req taskRequest
	if !h.bindRequest(c, &req) {
		return
	}
	in, err := req.input(h)
	if err != nil {
		h.respondError(c, err, "invalid task dates")
		return
	}

	task, err := h.tasks.Create(c, caller, in)
	if err != nil {
		h.respondError(c, err, "failed to create task")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Task added.",
		"task":    scrum.NewTaskDTO(task, caller.IsAdmin, h.loc),
	})
}

func (h *handlerImpl) toggleTask(c *gin.Context, caller scrum.Caller) {
	id, ok := h.queryID(c, "id")
	if !ok {
		return
	}

	task, err := h.tasks.ToggleDone(c, caller, id)
	if err != nil {
		h.respondError(c, err, "failed to toggle task")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task status changed.",
		"task":    scrum.NewTaskDTO(task, caller.IsAdmin, h.loc),
	})
}

func (h *handlerImpl) deleteTask(c *gin.Context, caller scrum.Caller) {
	id, ok := h.queryID(c, "id")
	if !ok {
		return
	}

	err := h.tasks.Delete(c, caller, id)
	if err != nil {
		h.respondError(c, err, "failed to delete task")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted."})
}

// HandleGetTask loads the edit form, which is refused while the parent
// event is done.
func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	task, err := h.tasks.GetForEdit(c, caller, id)
	if err != nil {
		h.respondError(c, err, "failed to get task")
		return
	}
	events, err := h.events.List(c, caller)
	if err != nil {
		h.respondError(c, err, "failed to get events")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task":   scrum.NewTaskDTO(task, caller.IsAdmin, h.loc),
		"events": h.eventDTOs(caller, events),
	})
}

func (h *handlerImpl) HandleEditTask(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req taskRequest
	if !h.bindRequest(c, &req) {
		return
	}
	in, err := req.input(h)
	if err != nil {
		h.respondError(c, err, "invalid task dates")
		return
	}

	task, err := h.tasks.Update(c, caller, id, in)
	if err != nil {
		h.respondError(c, err, "failed to update task")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task updated.",
		"task":    scrum.NewTaskDTO(task, caller.IsAdmin, h.loc),
	})
}
