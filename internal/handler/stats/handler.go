package stats

import (
	"github.com/gin-gonic/gin"

	statssvc "github.com/medwatch/triage-api/internal/service/stats"
	"github.com/medwatch/triage-api/pkg/httputil"
)

type Handler struct {
	service *statssvc.Service
}

func NewHandler(service *statssvc.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	stats := r.Group("/stats")
	{
		stats.GET("/alerts", h.GetAlertStats)
		stats.GET("/dashboard", h.GetDashboardStats)
	}
}

func (h *Handler) GetAlertStats(c *gin.Context) {
	tallies, err := h.service.GetAlertStats(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tallies)
}

// GetDashboardStats never fails as a whole: a tile whose roll-up errored
// carries its sentinel change text while the siblings keep real values.
func (h *Handler) GetDashboardStats(c *gin.Context) {
	httputil.RespondWithSuccess(c, h.service.GetDashboardStats(c.Request.Context()))
}
