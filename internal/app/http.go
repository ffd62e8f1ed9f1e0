package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-scrum/internal/config"
	"github.com/adanyl0v/go-scrum/internal/delivery/http/v1"
)

const healthCheckTimeout = 2 * time.Second

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	registerRoutes(router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}
	// Websocket connections are hijacked and outlive Shutdown,
	// so the hub closes them itself.
	server.RegisterOnShutdown(globalHub.Close)

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server with a timeout.
	quit := make(chan os.Signal, 1)
	// kill (no params) by default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be caught, so don't need to add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router gin.IRouter) {
	cfg := config.Global()
	h := v1.New(globalLogger, v1.Dependencies{
		Auth:           globalAuthService,
		Sessions:       globalSessionService,
		Accounts:       globalAccounts,
		Events:         globalEventService,
		Tasks:          globalTaskService,
		Admin:          globalAdminService,
		Roles:          globalRoles,
		Hub:            globalHub,
		Location:       globalLocation,
		CalendarName:   cfg.Calendar.Name,
		CalendarDomain: cfg.Calendar.Domain,
	})

	router.GET("/healthz", handleHealth)

	router.POST("/Login", h.HandleLogin)
	router.POST("/Register", h.HandleRegister)
	router.POST("/auth/refresh", h.HandleRefresh)
	router.GET("/ResetPassword", h.HandleGetResetPassword)
	router.POST("/ResetPassword", h.HandleResetPassword)

	authorized := router.Group("/", h.HandleAuthMiddleware)
	authorized.POST("/Logout", h.HandleLogout)

	authorized.GET("/Events", h.HandleGetEvents)
	authorized.POST("/Events", h.HandlePostEvents)
	authorized.GET("/Events/Edit/:id", h.HandleGetEvent)
	authorized.POST("/Events/Edit/:id", h.HandleEditEvent)

	authorized.GET("/Tasks", h.HandleGetTasks)
	authorized.POST("/Tasks", h.HandlePostTasks)
	authorized.GET("/Tasks/Edit/:id", h.HandleGetTask)
	authorized.POST("/Tasks/Edit/:id", h.HandleEditTask)

	authorized.GET("/Api/Events", h.HandleEventsFeed)
	authorized.GET("/Api/Tasks", h.HandleTasksFeed)
	authorized.GET("/Api/Calendar.ics", h.HandleCalendar)

	authorized.GET("/updatesHub", h.HandleUpdatesHub)

	admin := authorized.Group("/Admin", h.HandleAdminMiddleware)
	admin.GET("/AdminPanel", h.HandleAdminPanel)
	admin.POST("/AdminPanel", h.HandlePostAdminPanel)
}

func handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c, healthCheckTimeout)
	defer cancel()

	err := globalPostgresPool.Ping(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"clients": globalHub.ClientCount(),
	})
}
