package vitals

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medwatch/triage-api/internal/model"
	vitalsvc "github.com/medwatch/triage-api/internal/service/vitals"
	apperrors "github.com/medwatch/triage-api/pkg/errors"
	"github.com/medwatch/triage-api/pkg/httputil"
)

type Handler struct {
	service *vitalsvc.Service
}

func NewHandler(service *vitalsvc.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	vitals := r.Group("/vitals")
	{
		vitals.POST("", h.RecordVitals)
		vitals.GET("/:patientId", h.GetHistory)
	}
}

func (h *Handler) RecordVitals(c *gin.Context) {
	var req model.RecordVitalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid vitals payload", err))
		return
	}

	obs, err := h.service.Record(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, obs)
}

func (h *Handler) GetHistory(c *gin.Context) {
	patientID := c.Param("patientId")
	if patientID == "" {
		httputil.RespondWithError(c, apperrors.NewBadRequest("missing patient ID", nil))
		return
	}

	limit := 0
	if v, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.RespondWithError(c, apperrors.NewBadRequest("invalid limit", err))
			return
		}
		limit = n
	}

	history, err := h.service.History(c.Request.Context(), patientID, limit)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, history)
}
