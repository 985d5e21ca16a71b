package handlers

import (
	"errors"
	"net/http"

	"smartfarm/internal/logger"
	"smartfarm/internal/models"
	"smartfarm/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// WebSocket stream of device states and active alerts — same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		commands := api.Group("/commands")
		{
			commands.POST("", h.submitCommand)
			commands.POST("/:id/resolve", h.resolveCommand)
			commands.GET("", h.commandHistory)
		}

		thresholds := api.Group("/thresholds")
		{
			thresholds.PUT("", h.setThreshold)
			thresholds.GET("", h.getThresholds)
		}

		api.POST("/readings", h.ingestReading)

		alerts := api.Group("/alerts")
		{
			alerts.GET("", h.listAlerts)
			alerts.POST("/:id/ack", h.acknowledgeAlert)
		}

		api.GET("/notifications", h.listNotifications)
		api.GET("/devices", h.listDevices)
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statusForError maps the service error taxonomy onto HTTP codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidPayload), errors.Is(err, models.ErrInvalidTolerance):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrCommandConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrUnknownCommand),
		errors.Is(err, models.ErrThresholdNotFound),
		errors.Is(err, models.ErrAlertNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	code := statusForError(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		// Storage failures are fatal for the request; don't leak internals.
		msg = "internal error"
	}
	c.JSON(code, gin.H{"error": msg})
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}
