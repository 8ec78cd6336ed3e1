package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/medwatch/triage-api/internal/mlclient"
)

type Handler struct {
	db       *sqlx.DB
	mlClient *mlclient.Client
}

func NewHandler(db *sqlx.DB, mlClient *mlclient.Client) *Handler {
	return &Handler{
		db:       db,
		mlClient: mlClient,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

// ReadinessCheck reports degraded rather than down when only the classifier
// backend is unreachable; alert lifecycle and vitals entry still work
// without it.
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "DOWN",
			"reason": "Database connection failed",
		})
		return
	}

	if h.mlClient != nil && !h.mlClient.Healthy(c.Request.Context()) {
		c.JSON(http.StatusOK, gin.H{
			"status": "DEGRADED",
			"reason": "Classifier backend unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}
