package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-scrum/internal/scrum"
	"github.com/adanyl0v/go-scrum/internal/services"
)

type Handler interface {
	HandleLogin(c *gin.Context)
	HandleRefresh(c *gin.Context)
	HandleRegister(c *gin.Context)
	HandleLogout(c *gin.Context)
	HandleGetResetPassword(c *gin.Context)
	HandleResetPassword(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)
	HandleAdminMiddleware(c *gin.Context)

	HandleGetEvents(c *gin.Context)
	HandlePostEvents(c *gin.Context)
	HandleGetEvent(c *gin.Context)
	HandleEditEvent(c *gin.Context)

	HandleGetTasks(c *gin.Context)
	HandlePostTasks(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleEditTask(c *gin.Context)

	HandleEventsFeed(c *gin.Context)
	HandleTasksFeed(c *gin.Context)
	HandleCalendar(c *gin.Context)

	HandleAdminPanel(c *gin.Context)
	HandlePostAdminPanel(c *gin.Context)

	HandleUpdatesHub(c *gin.Context)
}

// UpdatesHub upgrades a request into a real-time notification stream.
type UpdatesHub interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID string) error
}

type Dependencies struct {
	Auth     services.AuthService
	Sessions services.SessionService
	Accounts *scrum.Accounts
	Events   *scrum.EventService
	Tasks    *scrum.TaskService
	Admin    *scrum.AdminService
	Roles    scrum.RoleDirectory
	Hub      UpdatesHub

	// Location is the time zone dates are entered and displayed in.
	Location *time.Location
	// CalendarName and CalendarDomain describe the exported iCalendar feed.
	CalendarName   string
	CalendarDomain string
}

type handlerImpl struct {
	logger         zerolog.Logger
	auth           services.AuthService
	sessions       services.SessionService
	accounts       *scrum.Accounts
	events         *scrum.EventService
	tasks          *scrum.TaskService
	admin          *scrum.AdminService
	roles          scrum.RoleDirectory
	hub            UpdatesHub
	loc            *time.Location
	calendarName   string
	calendarDomain string
}

func New(logger zerolog.Logger, deps Dependencies) Handler {
	useFormFieldNames()

	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}

	return &handlerImpl{
		logger:         logger,
		auth:           deps.Auth,
		sessions:       deps.Sessions,
		accounts:       deps.Accounts,
		events:         deps.Events,
		tasks:          deps.Tasks,
		admin:          deps.Admin,
		roles:          deps.Roles,
		hub:            deps.Hub,
		loc:            loc,
		calendarName:   deps.CalendarName,
		calendarDomain: deps.CalendarDomain,
	}
}
