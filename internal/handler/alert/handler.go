package alert

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medwatch/triage-api/internal/aggregator"
	"github.com/medwatch/triage-api/internal/middleware"
	"github.com/medwatch/triage-api/internal/model"
	alertsvc "github.com/medwatch/triage-api/internal/service/alert"
	apperrors "github.com/medwatch/triage-api/pkg/errors"
	"github.com/medwatch/triage-api/pkg/httputil"
)

const defaultStreamMax = 50

type Handler struct {
	service    *alertsvc.Service
	aggregator *aggregator.Aggregator
	logger     *zerolog.Logger
}

func NewHandler(service *alertsvc.Service, agg *aggregator.Aggregator, logger *zerolog.Logger) *Handler {
	return &Handler{
		service:    service,
		aggregator: agg,
		logger:     logger,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	alerts := r.Group("/alerts")
	{
		alerts.GET("", h.ListAlerts)
		alerts.GET("/:id", h.GetAlert)
		alerts.POST("/:id/transition", h.TransitionAlert)
		alerts.DELETE("/:id", h.DeactivateAlert)
	}
}

// RegisterStreamRoutes mounts the long-lived SSE endpoint. Kept on a separate
// group so the router can skip the request timeout for it.
func (h *Handler) RegisterStreamRoutes(r *gin.RouterGroup) {
	r.GET("/alerts/stream", h.StreamAlerts)
}

func (h *Handler) ListAlerts(c *gin.Context) {
	var filter model.AlertFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid filter", err))
		return
	}

	alerts, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	filtered := make([]*model.RiskAlert, 0, len(alerts))
	for _, a := range alerts {
		if filter.RiskTier != "" && a.RiskTier != filter.RiskTier {
			continue
		}
		if filter.AlertStatus != "" && a.AlertStatus != filter.AlertStatus {
			continue
		}
		filtered = append(filtered, a)
	}

	httputil.RespondWithSuccess(c, filtered)
}

func (h *Handler) GetAlert(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid alert ID", err))
		return
	}

	alert, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, alert)
}

func (h *Handler) TransitionAlert(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid alert ID", err))
		return
	}

	var req model.TransitionAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid transition request", err))
		return
	}

	// The authenticated staff member is the default actor; an explicit
	// staff_id in the body overrides it for delegated acknowledgements.
	staffID := req.StaffID
	if staffID == "" {
		staffID = c.GetString(middleware.ContextStaffID)
	}

	alert, err := h.service.Transition(c.Request.Context(), id, req.NewStatus, staffID, req.Notes)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, alert)
}

func (h *Handler) DeactivateAlert(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid alert ID", err))
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"deactivated": true})
}

// StreamAlerts pushes the live alert view over server-sent events. Every
// message is a full replacement snapshot; the client renders the latest one
// and discards its previous state.
func (h *Handler) StreamAlerts(c *gin.Context) {
	var filter model.AlertFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid filter", err))
		return
	}

	maxResults := defaultStreamMax
	if v, ok := c.GetQuery("max"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httputil.RespondWithError(c, apperrors.NewBadRequest("invalid max parameter", err))
			return
		}
		maxResults = n
	}

	sub := h.aggregator.Subscribe(filter, maxResults)
	defer sub.Close()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case snapshot, ok := <-sub.Updates():
			if !ok {
				return false
			}
			payload, err := json.Marshal(snapshot)
			if err != nil {
				h.logger.Error().Err(err).Msg("failed to encode alert snapshot")
				return true
			}
			c.SSEvent("alerts", string(payload))
			return true
		}
	})
}
