package classification

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medwatch/triage-api/internal/classifier"
	"github.com/medwatch/triage-api/internal/middleware"
	"github.com/medwatch/triage-api/internal/model"
	alertsvc "github.com/medwatch/triage-api/internal/service/alert"
	apperrors "github.com/medwatch/triage-api/pkg/errors"
	"github.com/medwatch/triage-api/pkg/httputil"
)

type Handler struct {
	batch  *classifier.Batch
	alerts *alertsvc.Service
}

func NewHandler(batch *classifier.Batch, alerts *alertsvc.Service) *Handler {
	return &Handler{
		batch:  batch,
		alerts: alerts,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/classifications", h.ClassifyBatch)
}

type batchResponse struct {
	model.BatchSummary
	AlertIDs []uuid.UUID `json:"alert_ids,omitempty"`
}

// ClassifyBatch runs a full upload batch through the classifier. With
// persist=true, High and Medium tier results are stored as alerts in a
// single transaction and the created IDs are returned alongside the summary.
func (h *Handler) ClassifyBatch(c *gin.Context) {
	var req model.ClassifyBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid classification request", err))
		return
	}

	summary := h.batch.Classify(c.Request.Context(), req.Records)

	resp := batchResponse{BatchSummary: summary}
	if req.Persist {
		uploadedBy := c.GetString(middleware.ContextStaffID)
		ids, err := h.alerts.CreateFromBatch(c.Request.Context(), summary.Items, uploadedBy)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		resp.AlertIDs = ids
	}

	httputil.RespondWithCreated(c, resp)
}
