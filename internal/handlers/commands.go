package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"smartfarm/internal/models"
	"smartfarm/internal/service"

	"github.com/gin-gonic/gin"
)

// Request DTO for command submission.
type submitCommandRequest struct {
	Sector    string                   `json:"sector" binding:"required"`
	Device    string                   `json:"device" binding:"required"`
	Status    bool                     `json:"status"`
	Mode      string                   `json:"mode" binding:"required"` // MANUAL | SCHEDULE | THRESHOLD
	Schedule  *models.SchedulePayload  `json:"schedule,omitempty"`
	Threshold *models.ThresholdPayload `json:"threshold,omitempty"`
}

type resolveCommandRequest struct {
	Outcome string `json:"outcome" binding:"required"` // APPLIED | FAILED
}

// @Summary      Submit a device command
// @Description  SCHEDULE requires a start/end window (HH:MM, start <= end); THRESHOLD requires attribute/center/tolerance. At most one command per device may be pending.
// @Tags         commands
// @Accept       json
// @Produce      json
// @Param        body  body  submitCommandRequest  true  "Command payload"
// @Success      200   {object}  models.Command
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/commands [post]
// @Security     BearerAuth
func (h *Handler) submitCommand(c *gin.Context) {
	var req submitCommandRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	cmd, err := h.services.Submit(c.Request.Context(), service.SubmitParams{
		Sector:    req.Sector,
		Device:    req.Device,
		Status:    req.Status,
		Mode:      models.ControlMode(strings.ToUpper(strings.TrimSpace(req.Mode))),
		Schedule:  req.Schedule,
		Threshold: req.Threshold,
	})
	if err != nil {
		h.logAndJSONError(c, "command_submit_failed", err, "sector", req.Sector, "device", req.Device)
		return
	}
	c.JSON(http.StatusOK, cmd)
}

// @Summary      Resolve a pending command
// @Description  Called by the device transport on acknowledgment or timeout. Repeat delivery is a no-op success.
// @Tags         commands
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "Command id"
// @Param        body  body  resolveCommandRequest  true  "Outcome"
// @Success      200   {object}  models.Command
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/commands/{id}/resolve [post]
// @Security     BearerAuth
func (h *Handler) resolveCommand(c *gin.Context) {
	var req resolveCommandRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	outcome := models.CommandOutcome(strings.ToUpper(strings.TrimSpace(req.Outcome)))
	cmd, err := h.services.Resolve(c.Request.Context(), c.Param("id"), outcome)
	if err != nil {
		h.logAndJSONError(c, "command_resolve_failed", err, "command_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, cmd)
}

// @Summary      Command history for a device
// @Description  Newest-first page of commands with seq < before; pagination is stable under concurrent submissions.
// @Tags         commands
// @Produce      json
// @Param        sector  query  string  true   "Sector code"
// @Param        device  query  string  true   "Device name"
// @Param        limit   query  int     false  "Page size (default 50)"
// @Param        before  query  int     false  "Upper bound (exclusive) on command seq"
// @Success      200     {object}  map[string]interface{}  "count, commands"
// @Failure      400     {object}  map[string]string
// @Router       /api/v1/commands [get]
// @Security     BearerAuth
func (h *Handler) commandHistory(c *gin.Context) {
	sector := c.Query("sector")
	device := c.Query("device")
	if sector == "" || device == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sector and device query params are required"})
		return
	}

	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	before, err := intQuery(c, "before", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid before"})
		return
	}

	commands, err := h.services.History(c.Request.Context(), sector, device, int(limit), before)
	if err != nil {
		h.logAndJSONError(c, "command_history_failed", err, "sector", sector, "device", device)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(commands),
		"commands": commands,
	})
}

// @Summary      List device states
// @Tags         devices
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, devices"
// @Router       /api/v1/devices [get]
// @Security     BearerAuth
func (h *Handler) listDevices(c *gin.Context) {
	devices, err := h.services.Devices(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, "devices_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(devices),
		"devices": devices,
	})
}

// intQuery parses an optional integer query parameter.
func intQuery(c *gin.Context, name string, def int64) (int64, error) {
	s := c.Query(name)
	if s == "" {
		return def, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
