package scrum

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-scrum/internal/models"
	"github.com/adanyl0v/go-scrum/internal/notify"
	"github.com/adanyl0v/go-scrum/internal/services"
)

type TaskService struct {
	logger zerolog.Logger
	events services.EventRepository
	tasks  services.TaskRepository
	pub    *publisher
	loc    *time.Location
}

func NewTaskService(
	logger zerolog.Logger,
	events services.EventRepository,
	tasks services.TaskRepository,
	notifier notify.Notifier,
	roles RoleDirectory,
	loc *time.Location,
) *TaskService {
	return &TaskService{
		logger: logger,
		events: events,
		tasks:  tasks,
		pub:    &publisher{logger: logger, notifier: notifier, roles: roles},
		loc:    loc,
	}
}

func (s *TaskService) List(ctx context.Context, caller Caller) ([]*models.Task, error) {
	return s.tasks.GetTasks(ctx, caller.UserID, caller.IsAdmin)
}

// Get returns services.ErrTaskNotFound when the task is missing or not
// visible to the caller.
func (s *TaskService) Get(ctx context.Context, caller Caller, id int64) (*models.Task, error) {
	return s.tasks.GetTaskByID(ctx, id, caller.UserID, caller.IsAdmin)
}

// GetForEdit is Get for the edit form. It fails with ErrTaskLocked while
// the parent event is done.
func (s *TaskService) GetForEdit(ctx context.Context, caller Caller, id int64) (*models.Task, error) {
	task, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if task.Locked() {
		return nil, ErrTaskLocked
	}
	return task, nil
}

// validate checks the input and resolves the parent event under the
// caller's scope. The task must fit inside the event window.
func (s *TaskService) validate(ctx context.Context, caller Caller, in TaskInput) (*models.Event, error) {
	errs := fieldErrors{}
	validateWindow(errs, in.Title, in.StartDate, in.EndDate)

	if in.EventID == 0 {
		errs.add("eventId", "Event is required.")
		return nil, errs.err()
	}

	event, err := s.events.GetEventByID(ctx, in.EventID, caller.UserID, caller.IsAdmin)
	if err != nil {
		if errors.Is(err, services.ErrEventNotFound) {
			errs.add("eventId", "Selected event does not exist.")
			return nil, errs.err()
		}
		return nil, err
	}

	if !in.StartDate.IsZero() && in.StartDate.Before(event.StartDate) {
		errs.add("startDate", "Task cannot start before its event starts.")
	}
	if !in.EndDate.IsZero() && in.EndDate.After(event.EndDate) {
		errs.add("endDate", "Task cannot end after its event ends.")
	}

	err = errs.err()
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *TaskService) Create(ctx context.Context, caller Caller, in TaskInput) (*models.Task, error) {
	event, err := s.validate(ctx, caller, in)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		EventID:     event.ID,
		OwnerID:     caller.UserID,
		Title:       in.Title,
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		IsDone:      false,
	}
	err = s.tasks.AddTask(ctx, task)
	if err != nil {
		return nil, err
	}

	s.publishTask(ctx, notify.TaskAdded, task)
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, caller Caller, id int64, in TaskInput) (*models.Task, error) {
	event, err := s.validate(ctx, caller, in)
	if err != nil {
		return nil, err
	}

	task, err := s.GetForEdit(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if event.IsDone && event.ID != task.EventID {
		return nil, &ValidationError{Fields: map[string]string{
			"eventId": "Tasks cannot be moved into a completed event.",
		}}
	}

	task.EventID = event.ID
	task.EventDone = event.IsDone
	task.Title = in.Title
	task.Description = in.Description
	task.StartDate = in.StartDate
	task.EndDate = in.EndDate
	err = s.tasks.UpdateTask(ctx, task)
	if err != nil {
		return nil, err
	}

	s.publishTask(ctx, notify.TaskUpdated, task)
	return task, nil
}

func (s *TaskService) ToggleDone(ctx context.Context, caller Caller, id int64) (*models.Task, error) {
	task, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if task.Locked() {
		s.logger.Warn().
			Int64("task_id", task.ID).
			Int64("event_id", task.EventID).
			Msg("toggle rejected, event is done")
		return nil, ErrTaskLocked
	}

	task.IsDone = !task.IsDone
	err = s.tasks.UpdateTask(ctx, task)
	if err != nil {
		return nil, err
	}

	s.publishTask(ctx, notify.TaskUpdated, task)
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, caller Caller, id int64) error {
	task, err := s.Get(ctx, caller, id)
	if err != nil {
		return err
	}

	err = s.tasks.DeleteTask(ctx, task.ID)
	if err != nil {
		return err
	}

	payload := TaskDeletedPayload{ID: task.ID}
	s.pub.publish(ctx, task.OwnerID, notify.TaskDeleted, payload, payload)
	return nil
}

func (s *TaskService) publishTask(ctx context.Context, name string, task *models.Task) {
	s.pub.publish(ctx, task.OwnerID, name,
		NewTaskDTO(task, true, s.loc),
		NewTaskDTO(task, false, s.loc),
	)
}
