package scrum

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-scrum/internal/models"
	"github.com/adanyl0v/go-scrum/internal/notify"
	"github.com/adanyl0v/go-scrum/internal/services"
)

type EventService struct {
	logger zerolog.Logger
	events services.EventRepository
	tasks  services.TaskRepository
	pub    *publisher
	loc    *time.Location
}

func NewEventService(
	logger zerolog.Logger,
	events services.EventRepository,
	tasks services.TaskRepository,
	notifier notify.Notifier,
	roles RoleDirectory,
	loc *time.Location,
) *EventService {
	return &EventService{
		logger: logger,
		events: events,
		tasks:  tasks,
		pub:    &publisher{logger: logger, notifier: notifier, roles: roles},
		loc:    loc,
	}
}

// List returns every event for admins and the caller's own events otherwise.
func (s *EventService) List(ctx context.Context, caller Caller) ([]*models.Event, error) {
	return s.events.GetEvents(ctx, caller.UserID, caller.IsAdmin)
}

// Get returns services.ErrEventNotFound when the event is missing or
// belongs to someone else and the caller is not an admin.
func (s *EventService) Get(ctx context.Context, caller Caller, id int64) (*models.Event, error) {
	return s.events.GetEventByID(ctx, id, caller.UserID, caller.IsAdmin)
}

func (s *EventService) Create(ctx context.Context, caller Caller, in EventInput) (*models.Event, error) {
	err := in.validate()
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		OwnerID:     caller.UserID,
		Title:       in.Title,
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		IsDone:      false,
	}
	err = s.events.AddEvent(ctx, event)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, notify.EventAdded, event)
	return event, nil
}

func (s *EventService) Update(ctx context.Context, caller Caller, id int64, in EventInput) (*models.Event, error) {
	err := in.validate()
	if err != nil {
		return nil, err
	}

	event, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	err = s.checkTasksFit(ctx, event.ID, in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}

	event.Title = in.Title
	event.Description = in.Description
	event.StartDate = in.StartDate
	event.EndDate = in.EndDate
	err = s.events.UpdateEvent(ctx, event)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, notify.EventUpdated, event)
	return event, nil
}

// checkTasksFit refuses a window that would leave existing tasks of the
// event outside of it.
func (s *EventService) checkTasksFit(ctx context.Context, eventID int64, start, end time.Time) error {
	tasks, err := s.tasks.GetTasksByEventID(ctx, eventID)
	if err != nil {
		return err
	}

	errs := fieldErrors{}
	for _, task := range tasks {
		if task.StartDate.Before(start) {
			errs.add("startDate", "Some tasks of this event start before the new start date.")
		}
		if task.EndDate.After(end) {
			errs.add("endDate", "Some tasks of this event end after the new end date.")
		}
	}
	return errs.err()
}

// ToggleDone flips the completion flag. Completing an event locks editing
// of all its tasks; reopening it unlocks them.
func (s *EventService) ToggleDone(ctx context.Context, caller Caller, id int64) (*models.Event, error) {
	event, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	event.IsDone = !event.IsDone
	err = s.events.UpdateEvent(ctx, event)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.GetTasksByEventID(ctx, event.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("event_id", event.ID).
			Msg("failed to load tasks for lock propagation")
	}

	lockMessage := notify.UnblockTaskEdit
	if event.IsDone {
		lockMessage = notify.BlockTaskEdit
	}
	for _, task := range tasks {
		task.EventDone = event.IsDone
		s.pub.notifier.All(lockMessage, task.ID)
	}

	s.publishEvent(ctx, notify.EventUpdated, event)
	s.publishEventTasks(ctx, event, tasks)

	s.logger.Info().
		Int64("event_id", event.ID).
		Bool("is_done", event.IsDone).
		Int("tasks", len(tasks)).
		Str("lock_state", string(models.LockStateFor(event.IsDone))).
		Msg("toggled event")
	return event, nil
}

// Delete removes the event together with its tasks.
func (s *EventService) Delete(ctx context.Context, caller Caller, id int64) error {
	event, err := s.Get(ctx, caller, id)
	if err != nil {
		return err
	}

	taskIDs, err := s.relatedTaskIDs(ctx, event.ID)
	if err != nil {
		return err
	}

	err = s.events.DeleteEvent(ctx, event.ID)
	if err != nil {
		return err
	}

	payload := EventDeletedPayload{ID: event.ID, RelatedTaskIDs: taskIDs}
	s.pub.publish(ctx, event.OwnerID, notify.EventDeleted, payload, payload)
	return nil
}

func (s *EventService) relatedTaskIDs(ctx context.Context, eventID int64) ([]int64, error) {
	tasks, err := s.tasks.GetTasksByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	return ids, nil
}

func (s *EventService) publishEvent(ctx context.Context, name string, event *models.Event) {
	s.pub.publish(ctx, event.OwnerID, name,
		NewEventDTO(event, true, s.loc),
		NewEventDTO(event, false, s.loc),
	)
}

// publishEventTasks sends admins every task of the event and each
// non-admin task owner only their own tasks.
func (s *EventService) publishEventTasks(ctx context.Context, event *models.Event, tasks []*models.Task) {
	if len(tasks) == 0 {
		return
	}

	admins := s.pub.adminIDs(ctx)

	all := make([]TaskDTO, 0, len(tasks))
	byOwner := make(map[string][]TaskDTO)
	var owners []string
	for _, task := range tasks {
		all = append(all, NewTaskDTO(task, true, s.loc))
		if isAdminID(admins, task.OwnerID) {
			continue
		}
		if _, ok := byOwner[task.OwnerID]; !ok {
			owners = append(owners, task.OwnerID)
		}
		byOwner[task.OwnerID] = append(byOwner[task.OwnerID], NewTaskDTO(task, false, s.loc))
	}

	s.pub.notifier.Users(admins, notify.EventUpdatesTask, EventTasksPayload{EventID: event.ID, Tasks: all})
	for _, owner := range owners {
		s.pub.notifier.User(owner, notify.EventUpdatesTask, EventTasksPayload{EventID: event.ID, Tasks: byOwner[owner]})
	}
}
