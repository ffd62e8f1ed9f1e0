package scrum

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adanyl0v/go-scrum/internal/models"
	"github.com/adanyl0v/go-scrum/internal/services"
)

// memStore backs the in-memory repositories. It keeps a log of deletions
// so tests can assert on their order.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	users   map[string]*models.User
	events  map[int64]*models.Event
	tasks   map[int64]*models.Task
	deleted []string
}

func newMemStore(users ...string) *memStore {
	s := &memStore{
		users:  make(map[string]*models.User),
		events: make(map[int64]*models.Event),
		tasks:  make(map[int64]*models.Task),
	}
	for _, id := range users {
		s.users[id] = &models.User{ID: id, Email: id + "@scrum.local", UserName: id + "@scrum.local"}
	}
	return s
}

func (s *memStore) log(kind string, id any) {
	s.deleted = append(s.deleted, fmt.Sprintf("%s:%v", kind, id))
}

func (s *memStore) deletions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

func (s *memStore) userName(id string) string {
	if u, ok := s.users[id]; ok {
		return u.UserName
	}
	return ""
}

type fakeEvents struct{ *memStore }

func (r fakeEvents) copyEvent(e *models.Event) *models.Event {
	c := *e
	c.OwnerName = r.userName(e.OwnerID)
	return &c
}

func (r fakeEvents) sorted(keep func(*models.Event) bool) []*models.Event {
	var out []*models.Event
	for _, e := range r.events {
		if keep(e) {
			out = append(out, r.copyEvent(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out
}

func (r fakeEvents) GetEvents(_ context.Context, userID string, isAdmin bool) ([]*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(e *models.Event) bool { return isAdmin || e.OwnerID == userID }), nil
}

func (r fakeEvents) GetEventByID(_ context.Context, id int64, userID string, isAdmin bool) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok || !(isAdmin || e.OwnerID == userID) {
		return nil, services.ErrEventNotFound
	}
	return r.copyEvent(e), nil
}

func (r fakeEvents) GetEventsByOwner(_ context.Context, ownerID string) ([]*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(e *models.Event) bool { return e.OwnerID == ownerID }), nil
}

func (r fakeEvents) AddEvent(_ context.Context, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	event.ID = r.nextID
	event.OwnerName = r.userName(event.OwnerID)
	c := *event
	r.events[event.ID] = &c
	return nil
}

func (r fakeEvents) UpdateEvent(_ context.Context, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[event.ID]; !ok {
		return services.ErrEventNotFound
	}
	c := *event
	r.events[event.ID] = &c
	return nil
}

func (r fakeEvents) DeleteEvent(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return services.ErrEventNotFound
	}
	for tid, t := range r.tasks {
		if t.EventID == id {
			delete(r.tasks, tid)
			r.log("task", tid)
		}
	}
	delete(r.events, id)
	r.log("event", id)
	return nil
}

type fakeTasks struct{ *memStore }

func (r fakeTasks) copyTask(t *models.Task) *models.Task {
	c := *t
	c.OwnerName = r.userName(t.OwnerID)
	if e, ok := r.events[t.EventID]; ok {
		c.EventDone = e.IsDone
	}
	return &c
}

func (r fakeTasks) sorted(keep func(*models.Task) bool) []*models.Task {
	var out []*models.Task
	for _, t := range r.tasks {
		if keep(t) {
			out = append(out, r.copyTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out
}

func (r fakeTasks) GetTasks(_ context.Context, userID string, isAdmin bool) ([]*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(t *models.Task) bool { return isAdmin || t.OwnerID == userID }), nil
}

func (r fakeTasks) GetTaskByID(_ context.Context, id int64, userID string, isAdmin bool) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || !(isAdmin || t.OwnerID == userID) {
		return nil, services.ErrTaskNotFound
	}
	return r.copyTask(t), nil
}

func (r fakeTasks) GetTasksByEventID(_ context.Context, eventID int64) ([]*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(t *models.Task) bool { return t.EventID == eventID }), nil
}

func (r fakeTasks) GetTasksByOwner(_ context.Context, ownerID string) ([]*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(t *models.Task) bool { return t.OwnerID == ownerID }), nil
}

func (r fakeTasks) AddTask(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	task.ID = r.nextID
	c := *task
	r.tasks[task.ID] = &c
	*task = *r.copyTask(&c)
	return nil
}

func (r fakeTasks) UpdateTask(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[task.ID]; !ok {
		return services.ErrTaskNotFound
	}
	c := *task
	r.tasks[task.ID] = &c
	*task = *r.copyTask(&c)
	return nil
}

func (r fakeTasks) DeleteTask(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return services.ErrTaskNotFound
	}
	delete(r.tasks, id)
	r.log("task", id)
	return nil
}

type fakeUsers struct {
	*memStore
	issued map[string]string
}

func (r *fakeUsers) GetUserByID(_ context.Context, userID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *fakeUsers) GetUserByEmail(context.Context, string) (*models.User, error) {
	return nil, services.ErrUserNotFound
}

func (r *fakeUsers) GetUsersNotInRole(context.Context, string) ([]*models.User, error) {
	return nil, nil
}

func (r *fakeUsers) DeleteUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return services.ErrUserNotFound
	}
	delete(r.users, userID)
	r.log("user", userID)
	return nil
}

func (r *fakeUsers) IssuePasswordResetToken(_ context.Context, userID string, _ time.Duration) (string, error) {
	if r.issued == nil {
		r.issued = make(map[string]string)
	}
	token := "reset-token-for-" + userID
	r.issued[userID] = token
	return token, nil
}

func (r *fakeUsers) DeleteExpiredResetTokens(context.Context) (int64, error) {
	return 0, nil
}

type fakeSessions struct {
	revoked []string
}

func (f *fakeSessions) GetSessionByID(context.Context, string) (*models.Session, error) {
	return nil, services.ErrSessionNotFound
}

func (f *fakeSessions) DeleteSessionsByUserID(_ context.Context, userID string) (int64, error) {
	f.revoked = append(f.revoked, userID)
	return 1, nil
}

func (f *fakeSessions) DeleteExpiredSessions(context.Context) (int64, error) {
	return 0, nil
}

type fakeRoles struct {
	admins []string
}

func (f fakeRoles) AdminRoleID() string { return "role-admin" }

func (f fakeRoles) AdminIDs(context.Context) ([]string, error) {
	return f.admins, nil
}

func (f fakeRoles) IsAdmin(_ context.Context, userID string) (bool, error) {
	return isAdminID(f.admins, userID), nil
}

type fakeAuth struct {
	registerErr error
	resetErr    error
	reset       []services.ResetPasswordParams
}

func (f *fakeAuth) Login(context.Context, services.LoginParams) (*services.LoginResult, error) {
	return nil, services.ErrUserNotFound
}

func (f *fakeAuth) Refresh(context.Context, services.RefreshParams) (*services.LoginResult, error) {
	return nil, services.ErrSessionNotFound
}

func (f *fakeAuth) Register(_ context.Context, params services.LoginParams) (*services.LoginResult, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &services.LoginResult{UserID: "new-user", UserName: params.Email, SessionID: "session"}, nil
}

func (f *fakeAuth) Logout(context.Context, string) error { return nil }

func (f *fakeAuth) ResetPassword(_ context.Context, params services.ResetPasswordParams) error {
	f.reset = append(f.reset, params)
	return f.resetErr
}

func (f *fakeAuth) ParseJWTToken(string) (*jwt.RegisteredClaims, error) {
	return nil, jwt.ErrTokenMalformed
}

type sent struct {
	to      []string // nil means everybody
	name    string
	payload any
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sent
}

func (n *recordingNotifier) All(name string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sent{name: name, payload: payload})
}

func (n *recordingNotifier) User(userID string, name string, payload any) {
	n.Users([]string{userID}, name, payload)
}

func (n *recordingNotifier) Users(userIDs []string, name string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sent{to: append([]string{}, userIDs...), name: name, payload: payload})
}

func (n *recordingNotifier) named(name string) []sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sent
	for _, s := range n.sent {
		if s.name == name {
			out = append(out, s)
		}
	}
	return out
}

var (
	_ services.EventRepository = fakeEvents{}
	_ services.TaskRepository  = fakeTasks{}
	_ services.UserService     = (*fakeUsers)(nil)
	_ services.SessionService  = (*fakeSessions)(nil)
	_ services.AuthService     = (*fakeAuth)(nil)
	_ RoleDirectory            = fakeRoles{}
)
