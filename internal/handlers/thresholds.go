package handlers

import (
	"net/http"

	"smartfarm/internal/service"

	"github.com/gin-gonic/gin"
)

// Request DTO for threshold configuration.
type setThresholdRequest struct {
	Sector           string  `json:"sector" binding:"required"`
	Attribute        string  `json:"attribute" binding:"required"`
	Center           float64 `json:"center"`
	TolerancePercent float64 `json:"tolerance_percent" binding:"required"`
	Unit             string  `json:"unit,omitempty"`
}

// @Summary      Set a threshold
// @Description  Derives min/max as center*(1±tolerance/100); tolerance must be in (0, 100]. Supersedes the current value for the key; old versions stay in the event log.
// @Tags         thresholds
// @Accept       json
// @Produce      json
// @Param        body  body  setThresholdRequest  true  "Threshold payload"
// @Success      200   {object}  models.Threshold
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/thresholds [put]
// @Security     BearerAuth
func (h *Handler) setThreshold(c *gin.Context) {
	var req setThresholdRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	t, err := h.services.Set(c.Request.Context(), service.SetThresholdParams{
		Sector:           req.Sector,
		Attribute:        req.Attribute,
		Center:           req.Center,
		TolerancePercent: req.TolerancePercent,
		Unit:             req.Unit,
	})
	if err != nil {
		h.logAndJSONError(c, "threshold_set_failed", err, "sector", req.Sector, "attribute", req.Attribute)
		return
	}
	c.JSON(http.StatusOK, t)
}

// @Summary      List thresholds
// @Tags         thresholds
// @Produce      json
// @Param        sector  query  string  false  "Sector code (all sectors when omitted)"
// @Success      200     {object}  map[string]interface{}  "count, thresholds"
// @Router       /api/v1/thresholds [get]
// @Security     BearerAuth
func (h *Handler) getThresholds(c *gin.Context) {
	thresholds, err := h.services.Thresholds.List(c.Request.Context(), c.Query("sector"))
	if err != nil {
		h.logAndJSONError(c, "thresholds_list_failed", err, "sector", c.Query("sector"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":      len(thresholds),
		"thresholds": thresholds,
	})
}
