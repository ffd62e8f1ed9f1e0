package v1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-scrum/internal/models"
	"github.com/adanyl0v/go-scrum/internal/notify/mock_notify"
	"github.com/adanyl0v/go-scrum/internal/scrum"
	"github.com/adanyl0v/go-scrum/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testFingerprint = `{"client_ip":"192.0.2.1","user_agent":"scrum-test"}`

type fakeAuth struct {
	services.AuthService
	claims   map[string]*jwt.RegisteredClaims
	loginErr error
}

func (f *fakeAuth) Login(context.Context, services.LoginParams) (*services.LoginResult, error) {
	return nil, f.loginErr
}

func (f *fakeAuth) ParseJWTToken(token string) (*jwt.RegisteredClaims, error) {
	claims, ok := f.claims[token]
	if !ok {
		return nil, fmt.Errorf("invalid token: %w", jwt.ErrTokenMalformed)
	}
	return claims, nil
}

type fakeSessions struct {
	services.SessionService
	sessions map[string]*models.Session
}

func (f *fakeSessions) GetSessionByID(_ context.Context, id string) (*models.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, services.ErrSessionNotFound
	}
	return s, nil
}

type fakeRoles struct {
	admins []string
}

func (f fakeRoles) AdminRoleID() string { return "role-admin" }

func (f fakeRoles) AdminIDs(context.Context) ([]string, error) { return f.admins, nil }

func (f fakeRoles) IsAdmin(_ context.Context, userID string) (bool, error) {
	for _, id := range f.admins {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

type fakeEvents struct {
	services.EventRepository
	events []*models.Event
}

func (f fakeEvents) GetEvents(_ context.Context, userID string, isAdmin bool) ([]*models.Event, error) {
	var out []*models.Event
	for _, e := range f.events {
		if isAdmin || e.OwnerID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeTasks struct {
	services.TaskRepository
	tasks []*models.Task
}

func (f fakeTasks) GetTasks(_ context.Context, userID string, isAdmin bool) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range f.tasks {
		if isAdmin || t.OwnerID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func newTestHandler(t *testing.T, events []*models.Event, tasks []*models.Task) *handlerImpl {
	t.Helper()

	ctrl := gomock.NewController(t)
	notifier := mock_notify.NewMockNotifier(ctrl)
	roles := fakeRoles{admins: []string{"admin"}}
	loc := time.FixedZone("MSK", 3*60*60)

	eventRepo := fakeEvents{events: events}
	taskRepo := fakeTasks{tasks: tasks}

	h := New(zerolog.Nop(), Dependencies{
		Auth: &fakeAuth{claims: map[string]*jwt.RegisteredClaims{
			"alice-token": {Subject: "alice-session"},
			"admin-token": {Subject: "admin-session"},
			"stale-token": {Subject: "gone-session"},
		}},
		Sessions: &fakeSessions{sessions: map[string]*models.Session{
			"alice-session": {ID: "alice-session", UserID: "alice", Fingerprint: testFingerprint},
			"admin-session": {ID: "admin-session", UserID: "admin", Fingerprint: testFingerprint},
		}},
		Events:         scrum.NewEventService(zerolog.Nop(), eventRepo, taskRepo, notifier, roles, loc),
		Tasks:          scrum.NewTaskService(zerolog.Nop(), eventRepo, taskRepo, notifier, roles, loc),
		Roles:          roles,
		Location:       loc,
		CalendarName:   "Scrum",
		CalendarDomain: "scrum.local",
	})
	return h.(*handlerImpl)
}

func newTestRouter(h *handlerImpl) *gin.Engine {
	r := gin.New()
	r.POST("/Login", h.HandleLogin)
	r.POST("/Events", h.HandleAuthMiddleware, h.HandlePostEvents)
	r.GET("/Api/Events", h.HandleAuthMiddleware, h.HandleEventsFeed)
	r.GET("/Api/Tasks", h.HandleAuthMiddleware, h.HandleTasksFeed)
	r.GET("/Api/Calendar.ics", h.HandleAuthMiddleware, h.HandleCalendar)
	r.GET("/Admin/AdminPanel", h.HandleAuthMiddleware, h.HandleAdminMiddleware, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.POST("/Admin/AdminPanel", h.HandleAuthMiddleware, h.HandleAdminMiddleware, h.HandlePostAdminPanel)
	return r
}

func newRequest(method, target, token string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.RemoteAddr = "192.0.2.1:4321"
	req.Header.Set("User-Agent", "scrum-test")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, nil, nil)
	router := newTestRouter(h)

	tests := []struct {
		name   string
		req    func() *http.Request
		status int
	}{
		{
			name:   "no token",
			req:    func() *http.Request { return newRequest(http.MethodGet, "/Api/Events", "", "") },
			status: http.StatusUnauthorized,
		},
		{
			name:   "unknown token",
			req:    func() *http.Request { return newRequest(http.MethodGet, "/Api/Events", "forged", "") },
			status: http.StatusUnauthorized,
		},
		{
			name:   "session gone",
			req:    func() *http.Request { return newRequest(http.MethodGet, "/Api/Events", "stale-token", "") },
			status: http.StatusUnauthorized,
		},
		{
			name: "other browser",
			req: func() *http.Request {
				req := newRequest(http.MethodGet, "/Api/Events", "alice-token", "")
				req.Header.Set("User-Agent", "somebody-else")
				return req
			},
			status: http.StatusUnauthorized,
		},
		{
			name:   "bearer token",
			req:    func() *http.Request { return newRequest(http.MethodGet, "/Api/Events", "alice-token", "") },
			status: http.StatusOK,
		},
		{
			name: "cookie token",
			req: func() *http.Request {
				req := newRequest(http.MethodGet, "/Api/Events", "", "")
				req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: "alice-token"})
				return req
			},
			status: http.StatusOK,
		},
		{
			name:   "admin panel as user",
			req:    func() *http.Request { return newRequest(http.MethodGet, "/Admin/AdminPanel", "alice-token", "") },
			status: http.StatusForbidden,
		},
		{
			name:   "admin panel as admin",
			req:    func() *http.Request { return newRequest(http.MethodGet, "/Admin/AdminPanel", "admin-token", "") },
			status: http.StatusOK,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			router.ServeHTTP(w, tt.req())
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
		})
	}
}

func TestLoginFailureStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "wrong password", err: services.ErrUserPasswordMismatch, status: http.StatusUnauthorized},
		{name: "unknown email", err: services.ErrUserNotFound, status: http.StatusUnauthorized},
		{name: "locked out", err: fmt.Errorf("login: %w", services.ErrUserLockedOut), status: http.StatusLocked},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newTestHandler(t, nil, nil)
			h.auth = &fakeAuth{loginErr: tt.err}
			router := newTestRouter(h)

			form := url.Values{}
			form.Set("email", "alice@example.com")
			form.Set("password", "Secret123!")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, newRequest(http.MethodPost, "/Login", "", form.Encode()))
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
		})
	}
}

func TestAdminPanelRejectsMalformedUserID(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newTestHandler(t, nil, nil))

	for _, target := range []string{
		"/Admin/AdminPanel?handler=DeleteUser&id=not-a-uuid",
		"/Admin/AdminPanel?handler=DeleteUser",
		"/Admin/AdminPanel?handler=ForcePasswordReset&userId=1%27",
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, newRequest(http.MethodPost, target, "admin-token", ""))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d (%s)", target, w.Code, w.Body.String())
		}
	}
}

func TestPostEventsUnknownHandler(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newTestHandler(t, nil, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, newRequest(http.MethodPost, "/Events?handler=Archive&id=1", "alice-token", ""))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, newRequest(http.MethodPost, "/Events?handler=Delete&id=abc", "alice-token", ""))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestCreateEventReportsFieldErrors(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newTestHandler(t, nil, nil))

	form := url.Values{}
	form.Set("title", "")
	form.Set("startDate", "yesterday")
	form.Set("endDate", "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, newRequest(http.MethodPost, "/Events", "alice-token", form.Encode()))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
	}

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, field := range []string{"title", "startDate", "endDate"} {
		if body.Errors[field] == "" {
			t.Fatalf("missing error for %q in %v", field, body.Errors)
		}
	}
}

func TestFeedsAreScopedAndLocal(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 3, 6, 0, 0, 0, time.UTC)
	events := []*models.Event{
		{ID: 1, OwnerID: "alice", OwnerName: "alice@scrum.local", Title: "Daily", StartDate: start, EndDate: start.Add(time.Hour)},
		{ID: 2, OwnerID: "bob", OwnerName: "bob@scrum.local", Title: "Review", StartDate: start, EndDate: start.Add(time.Hour)},
	}
	tasks := []*models.Task{
		{ID: 7, EventID: 1, OwnerID: "alice", OwnerName: "alice@scrum.local", Title: "Prep", StartDate: start, EndDate: start.Add(30 * time.Minute)},
	}
	router := newTestRouter(newTestHandler(t, events, tasks))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, newRequest(http.MethodGet, "/Api/Events", "alice-token", ""))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var items []feedItem
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].ID != 1 {
		t.Fatalf("alice must only see her event, got %+v", items)
	}
	if items[0].Start != "2025-03-03T09:00:00" || items[0].End != "2025-03-03T10:00:00" {
		t.Fatalf("unexpected local times %+v", items[0])
	}
	if items[0].UserName != "" {
		t.Fatalf("user feed must not carry owner names")
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, newRequest(http.MethodGet, "/Api/Events", "admin-token", ""))
	items = nil
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 || items[1].UserName != "bob@scrum.local" {
		t.Fatalf("admin feed %+v", items)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, newRequest(http.MethodGet, "/Api/Tasks", "alice-token", ""))
	items = nil
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].EventID != 1 || items[0].End != "2025-03-03T09:30:00" {
		t.Fatalf("task feed %+v", items)
	}
}

func TestCalendarExport(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 3, 6, 0, 0, 0, time.UTC)
	events := []*models.Event{
		{ID: 1, OwnerID: "alice", Title: "Daily", StartDate: start, EndDate: start.Add(time.Hour)},
	}
	router := newTestRouter(newTestHandler(t, events, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, newRequest(http.MethodGet, "/Api/Calendar.ics", "alice-token", ""))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "SUMMARY:Daily") {
		t.Fatalf("event missing from calendar:\n%s", w.Body.String())
	}
}

func TestRespondErrorStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "validation", err: &scrum.ValidationError{Fields: map[string]string{"title": "Title is required."}}, status: http.StatusUnprocessableEntity},
		{name: "event not found", err: fmt.Errorf("get: %w", services.ErrEventNotFound), status: http.StatusNotFound},
		{name: "task not found", err: services.ErrTaskNotFound, status: http.StatusNotFound},
		{name: "locked task", err: scrum.ErrTaskLocked, status: http.StatusConflict},
		{name: "admin target", err: scrum.ErrAdminTarget, status: http.StatusForbidden},
		{name: "reset token", err: services.ErrResetTokenInvalid, status: http.StatusBadRequest},
		{name: "unexpected", err: errors.New("connection reset"), status: http.StatusInternalServerError},
	}

	h := &handlerImpl{logger: zerolog.Nop()}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			h.respondError(c, tt.err, "test")
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if !c.IsAborted() {
				t.Fatalf("context must be aborted")
			}
		})
	}
}

func TestParseWindow(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("MSK", 3*60*60)
	want := time.Date(2025, 3, 3, 9, 0, 0, 0, loc)

	for _, value := range []string{"2025-03-03T09:00", "2025-03-03T09:00:00", "2025-03-03 09:00"} {
		start, _, err := parseWindow("Daily", value, "2025-03-03T10:00", loc)
		if err != nil {
			t.Fatalf("%q: %v", value, err)
		}
		if !start.Equal(want) {
			t.Fatalf("%q parsed as %v", value, start)
		}
	}

	_, _, err := parseWindow(" ", "03/03/2025", "", loc)
	var verr *scrum.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Fields) != 3 {
		t.Fatalf("expected title, startDate and endDate errors, got %v", verr.Fields)
	}
}
