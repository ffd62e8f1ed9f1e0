package scrum

import (
	"time"

	"github.com/adanyl0v/go-scrum/internal/models"
)

// DateLayout is how dates travel in real-time payloads.
const DateLayout = "2006-01-02 15:04"

type EventDTO struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	IsDone      bool   `json:"isDone"`
	UserName    string `json:"userName,omitempty"`
	CanEdit     bool   `json:"canEdit"`
	CanDelete   bool   `json:"canDelete"`
}

type TaskDTO struct {
	ID          int64  `json:"id"`
	EventID     int64  `json:"eventId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	IsDone      bool   `json:"isDone"`
	Locked      bool   `json:"locked"`
	UserName    string `json:"userName,omitempty"`
	CanEdit     bool   `json:"canEdit"`
	CanDelete   bool   `json:"canDelete"`
}

type EventDeletedPayload struct {
	ID             int64   `json:"id"`
	RelatedTaskIDs []int64 `json:"relatedTaskIds"`
}

type TaskDeletedPayload struct {
	ID int64 `json:"id"`
}

type EventTasksPayload struct {
	EventID int64     `json:"eventId"`
	Tasks   []TaskDTO `json:"tasks"`
}

type UserRegisteredPayload struct {
	UserName string `json:"userName"`
	UserID   string `json:"userId"`
}

// ForcePasswordResetPayload never carries the reset link itself.
type ForcePasswordResetPayload struct {
	Message string `json:"message"`
}

func formatDate(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DateLayout)
}

func NewEventDTO(e *models.Event, forAdmin bool, loc *time.Location) EventDTO {
	dto := EventDTO{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		StartDate:   formatDate(e.StartDate, loc),
		EndDate:     formatDate(e.EndDate, loc),
		IsDone:      e.IsDone,
		CanEdit:     true,
		CanDelete:   true,
	}
	if forAdmin {
		dto.UserName = e.OwnerName
	}
	return dto
}

func NewTaskDTO(t *models.Task, forAdmin bool, loc *time.Location) TaskDTO {
	dto := TaskDTO{
		ID:          t.ID,
		EventID:     t.EventID,
		Title:       t.Title,
		Description: t.Description,
		StartDate:   formatDate(t.StartDate, loc),
		EndDate:     formatDate(t.EndDate, loc),
		IsDone:      t.IsDone,
		Locked:      t.Locked(),
		CanEdit:     !t.Locked(),
		CanDelete:   true,
	}
	if forAdmin {
		dto.UserName = t.OwnerName
	}
	return dto
}
