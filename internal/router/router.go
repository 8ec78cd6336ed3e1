package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/medwatch/triage-api/internal/middleware"
	"github.com/medwatch/triage-api/internal/model"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// StreamHandler serves long-lived connections that must bypass the request
// timeout.
type StreamHandler interface {
	RegisterStreamRoutes(*gin.RouterGroup)
}

type Router struct {
	engine          *gin.Engine
	auth            *middleware.StaffAuth
	healthH         Handler
	alertH          Handler
	alertStreamH    StreamHandler
	classificationH Handler
	vitalsH         Handler
	statsH          Handler
	metrics         *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

type Config struct {
	RateLimit      rate.Limit
	RateBurst      int
	RequestTimeout time.Duration
	CORSConfig     middleware.CORSConfig
	MetricsPrefix  string
}

func NewRouter(
	auth *middleware.StaffAuth,
	healthH Handler,
	alertH Handler,
	alertStreamH StreamHandler,
	classificationH Handler,
	vitalsH Handler,
	statsH Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	registerValidations()

	engine := gin.New()

	r := &Router{
		engine:          engine,
		auth:            auth,
		healthH:         healthH,
		alertH:          alertH,
		alertStreamH:    alertStreamH,
		classificationH: classificationH,
		vitalsH:         vitalsH,
		statsH:          statsH,
		metrics:         initRouterMetrics(config.MetricsPrefix),
	}

	if config.RequestTimeout == 0 {
		config.RequestTimeout = 30 * time.Second
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		r.metricsMiddleware(),
		middleware.CORS(config.CORSConfig),
	)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	r.setup(config.RequestTimeout)
	return r
}

func (r *Router) setup(requestTimeout time.Duration) {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.healthH.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.RequireStaff())

	// The SSE stream holds its connection open for the life of the client,
	// so it gets its own group without the request timeout.
	stream := protected.Group("")
	r.alertStreamH.RegisterStreamRoutes(stream)

	timed := protected.Group("")
	timed.Use(middleware.Timeout(requestTimeout))
	r.alertH.RegisterRoutes(timed)
	r.classificationH.RegisterRoutes(timed)
	r.vitalsH.RegisterRoutes(timed)
	r.statsH.RegisterRoutes(timed)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// registerValidations wires the lifecycle-status binding tag into gin's
// validator engine.
func registerValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("alert_status", func(fl validator.FieldLevel) bool {
		switch model.AlertStatus(fl.Field().String()) {
		case model.AlertStatusNew, model.AlertStatusAcknowledged,
			model.AlertStatusInProgress, model.AlertStatusResolved:
			return true
		}
		return false
	})
}

func initRouterMetrics(prefix string) *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}
