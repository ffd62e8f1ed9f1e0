package scrum

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-scrum/internal/notify"
	"github.com/adanyl0v/go-scrum/internal/services"
)

type adminFixture struct {
	*fixture
	users    *fakeUsers
	sessions *fakeSessions
	admin    *AdminService
}

func newAdminFixture() *adminFixture {
	f := newFixture()
	users := &fakeUsers{memStore: f.store}
	sessions := &fakeSessions{}
	return &adminFixture{
		fixture:  f,
		users:    users,
		sessions: sessions,
		admin: NewAdminService(zerolog.Nop(), users, sessions, fakeEvents{f.store}, fakeTasks{f.store},
			f.notifier, fakeRoles{admins: []string{"admin"}}, AdminConfig{
				PublicURL:     "https://scrum.example/",
				ResetTokenTTL: time.Hour,
			}),
	}
}

func TestDeleteUserCascades(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newAdminFixture()

	first := mustCreateEvent(t, f.fixture, alice, "First", t0, t0.Add(time.Hour))
	second := mustCreateEvent(t, f.fixture, alice, "Second", t0.Add(time.Hour), t0.Add(2*time.Hour))
	bobEvent := mustCreateEvent(t, f.fixture, bob, "Bob", t0, t0.Add(time.Hour))

	_, err := f.tasks.Create(ctx, alice, TaskInput{EventID: first, Title: "x", StartDate: t0, EndDate: t0.Add(time.Minute)})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	// A task someone else added to alice's event goes away with the event.
	_, err = f.tasks.Create(ctx, admin, TaskInput{EventID: second, Title: "admin task", StartDate: t0.Add(time.Hour), EndDate: t0.Add(90 * time.Minute)})
	if err != nil {
		t.Fatalf("create admin task: %v", err)
	}
	bobTask, err := f.tasks.Create(ctx, bob, TaskInput{EventID: bobEvent, Title: "bob", StartDate: t0, EndDate: t0.Add(time.Minute)})
	if err != nil {
		t.Fatalf("create bob task: %v", err)
	}

	err = f.admin.DeleteUser(ctx, "alice")
	if err != nil {
		t.Fatalf("delete user: %v", err)
	}

	deletions := f.store.deletions()
	if len(deletions) == 0 || deletions[len(deletions)-1] != "user:alice" {
		t.Fatalf("account must be removed last, got %v", deletions)
	}
	for _, e := range f.store.events {
		if e.OwnerID == "alice" {
			t.Fatalf("event %d of alice survived", e.ID)
		}
	}
	for _, task := range f.store.tasks {
		if task.OwnerID == "alice" || task.EventID == first || task.EventID == second {
			t.Fatalf("task %d survived", task.ID)
		}
	}
	if _, ok := f.store.tasks[bobTask.ID]; !ok {
		t.Fatalf("bob's task must stay")
	}
	if _, ok := f.store.events[bobEvent]; !ok {
		t.Fatalf("bob's event must stay")
	}

	logout := f.notifier.named(notify.ForceLogoutWithToast)
	if len(logout) != 1 || len(logout[0].to) != 1 || logout[0].to[0] != "alice" {
		t.Fatalf("expected forced logout for alice, got %+v", logout)
	}
}

func TestDeleteUserRefusesAdmins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newAdminFixture()

	err := f.admin.DeleteUser(ctx, "admin")
	if !errors.Is(err, ErrAdminTarget) {
		t.Fatalf("got %v", err)
	}
	if len(f.store.deletions()) != 0 {
		t.Fatalf("nothing must be deleted")
	}

	err = f.admin.DeleteUser(ctx, "ghost")
	if !errors.Is(err, services.ErrUserNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestForcePasswordResetKeepsLinkOffTheHub(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newAdminFixture()

	link, err := f.admin.ForcePasswordReset(ctx, "bob")
	if err != nil {
		t.Fatalf("force reset: %v", err)
	}

	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse %q: %v", link, err)
	}
	if u.Host != "scrum.example" || u.Path != "/ResetPassword" {
		t.Fatalf("unexpected link %q", link)
	}
	token := u.Query().Get("token")
	if token != f.users.issued["bob"] || u.Query().Get("userId") != "bob" {
		t.Fatalf("link does not carry the issued token: %q", link)
	}

	if len(f.sessions.revoked) != 1 || f.sessions.revoked[0] != "bob" {
		t.Fatalf("sessions must be revoked, got %v", f.sessions.revoked)
	}

	msgs := f.notifier.named(notify.ForcePasswordReset)
	if len(msgs) != 1 || len(msgs[0].to) != 1 || msgs[0].to[0] != "bob" {
		t.Fatalf("expected one message to bob, got %+v", msgs)
	}
	for _, m := range f.notifier.sent {
		raw, err := json.Marshal(m.payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if strings.Contains(string(raw), token) {
			t.Fatalf("token leaked through %s", m.name)
		}
	}

	_, err = f.admin.ForcePasswordReset(ctx, "ghost")
	if !errors.Is(err, services.ErrUserNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestForcePasswordResetRefusesAdmins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newAdminFixture()

	link, err := f.admin.ForcePasswordReset(ctx, "admin")
	if !errors.Is(err, ErrAdminTarget) {
		t.Fatalf("got %v", err)
	}
	if link != "" {
		t.Fatalf("no link expected, got %q", link)
	}
	if _, ok := f.users.issued["admin"]; ok {
		t.Fatalf("no token must be issued")
	}
	if len(f.sessions.revoked) != 0 {
		t.Fatalf("sessions must stay, got %v", f.sessions.revoked)
	}
	if msgs := f.notifier.named(notify.ForcePasswordReset); len(msgs) != 0 {
		t.Fatalf("nothing must be sent, got %+v", msgs)
	}
}
