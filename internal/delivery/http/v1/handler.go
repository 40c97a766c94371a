package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-reminders/internal/services"
)

type Handler interface {
	HandleLogin(c *gin.Context)
	HandleRefresh(c *gin.Context)
	HandleRegister(c *gin.Context)
	HandleLogout(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)
	HandleRateLimit(c *gin.Context)
	HandleHealth(c *gin.Context)

	HandleCreateReminder(c *gin.Context)
	HandleGetReminders(c *gin.Context)
	HandleGetReminder(c *gin.Context)
	HandleApplyAction(c *gin.Context)
	HandleDeleteReminder(c *gin.Context)
	HandleSyncReminders(c *gin.Context)
	HandleReorderReminders(c *gin.Context)
}

type handlerImpl struct {
	logger    zerolog.Logger
	auth      services.AuthService
	sessions  services.SessionService
	reminders services.ReminderService
	limiter   *RateLimiter
	now       func() time.Time
}

// New builds the v1 handler. A nil limiter disables rate limiting and a
// nil now defaults to time.Now.
func New(
	logger zerolog.Logger,
	authService services.AuthService,
	sessionService services.SessionService,
	reminderService services.ReminderService,
	limiter *RateLimiter,
	now func() time.Time,
) Handler {
	if now == nil {
		now = time.Now
	}
	return &handlerImpl{
		logger:    logger,
		auth:      authService,
		sessions:  sessionService,
		reminders: reminderService,
		limiter:   limiter,
		now:       now,
	}
}

// Register mounts every v1 route on the router.
func Register(router gin.IRouter, h Handler) {
	router.GET("/healthz", h.HandleHealth)

	api := router.Group("/api/v1")

	authRouter := api.Group("/auth", h.HandleRateLimit)
	authRouter.POST("/login", h.HandleLogin)
	authRouter.POST("/refresh", h.HandleRefresh)
	authRouter.POST("/register", h.HandleRegister)
	authRouter.POST("/logout", h.HandleAuthMiddleware, h.HandleLogout)

	reminderRouter := api.Group("/reminders", h.HandleAuthMiddleware, h.HandleRateLimit)
	reminderRouter.GET("", h.HandleGetReminders)
	reminderRouter.POST("", h.HandleCreateReminder)
	reminderRouter.POST("/sync", h.HandleSyncReminders)
	reminderRouter.PATCH("/order", h.HandleReorderReminders)
	reminderRouter.GET("/:id", h.HandleGetReminder)
	reminderRouter.PATCH("/:id", h.HandleApplyAction)
	reminderRouter.DELETE("/:id", h.HandleDeleteReminder)
}

func (h *handlerImpl) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
