package handlers

import (
	"net/http"
	"time"

	"smartfarm/internal/models"

	"github.com/gin-gonic/gin"
)

// Request DTO for telemetry ingestion (device transport facing).
type ingestReadingRequest struct {
	Sector    string  `json:"sector" binding:"required"`
	Device    string  `json:"device,omitempty"`
	Attribute string  `json:"attribute" binding:"required"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit,omitempty"`
	Timestamp string  `json:"timestamp,omitempty"` // RFC3339; defaults to now
}

// @Summary      Ingest a telemetry reading
// @Description  Appends the reading to the event log and evaluates it against the current threshold for its (sector, attribute) key in arrival order.
// @Tags         telemetry
// @Accept       json
// @Produce      json
// @Param        body  body  ingestReadingRequest  true  "Reading"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/readings [post]
// @Security     BearerAuth
func (h *Handler) ingestReading(c *gin.Context) {
	var req ingestReadingRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	var ts time.Time
	if req.Timestamp != "" {
		t, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid timestamp; use RFC3339"})
			return
		}
		ts = t
	}

	err := h.services.Ingest(c.Request.Context(), models.TelemetryReading{
		Sector:    req.Sector,
		Device:    req.Device,
		Attribute: req.Attribute,
		Value:     req.Value,
		Unit:      req.Unit,
		Timestamp: ts,
	})
	if err != nil {
		h.logAndJSONError(c, "reading_ingest_failed", err, "sector", req.Sector, "attribute", req.Attribute)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ingested"})
}

// @Summary      List alerts
// @Tags         alerts
// @Produce      json
// @Param        status  query  string  false  "Filter"  Enums(all,active,resolved)
// @Success      200     {object}  map[string]interface{}  "count, alerts"
// @Failure      400     {object}  map[string]string
// @Router       /api/v1/alerts [get]
// @Security     BearerAuth
func (h *Handler) listAlerts(c *gin.Context) {
	alerts, err := h.services.Alerts.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(alerts),
		"alerts": alerts,
	})
}

// @Summary      Acknowledge an alert
// @Description  Resolves the alert on behalf of a user. A later breach opens a new alert.
// @Tags         alerts
// @Produce      json
// @Param        id  path  string  true  "Alert id"
// @Success      200  {object}  models.Alert
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/alerts/{id}/ack [post]
// @Security     BearerAuth
func (h *Handler) acknowledgeAlert(c *gin.Context) {
	alert, err := h.services.Acknowledge(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logAndJSONError(c, "alert_ack_failed", err, "alert_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, alert)
}

// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Param        status  query  string  false  "Filter"  Enums(all,pending,completed)
// @Param        limit   query  int     false  "Page size (default 50)"
// @Success      200     {object}  map[string]interface{}  "count, notifications"
// @Failure      400     {object}  map[string]string
// @Router       /api/v1/notifications [get]
// @Security     BearerAuth
func (h *Handler) listNotifications(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	notifications, err := h.services.Notifications.List(c.Request.Context(), c.Query("status"), int(limit))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":         len(notifications),
		"notifications": notifications,
	})
}
