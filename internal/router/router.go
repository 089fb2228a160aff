package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinicore/clinic-api/internal/handler"
	appointmenthandler "github.com/clinicore/clinic-api/internal/handler/appointment"
	authhandler "github.com/clinicore/clinic-api/internal/handler/auth"
	doctorhandler "github.com/clinicore/clinic-api/internal/handler/doctor"
	messagehandler "github.com/clinicore/clinic-api/internal/handler/message"
	patienthandler "github.com/clinicore/clinic-api/internal/handler/patient"
	vitalhandler "github.com/clinicore/clinic-api/internal/handler/vital"
	"github.com/clinicore/clinic-api/internal/middleware"
	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/pkg/logger"
)

type Handlers struct {
	Auth        *authhandler.Handler
	Doctor      *doctorhandler.Handler
	Patient     *patienthandler.Handler
	Appointment *appointmenthandler.Handler
	Vital       *vitalhandler.Handler
	Message     *messagehandler.Handler
	Health      *handler.HealthHandler
}

type Config struct {
	RateLimitRPS   float64
	RateLimitBurst int
	CORS           middleware.CORSConfig
	Timeout        time.Duration
	MetricsPrefix  string
}

func DefaultConfig() Config {
	return Config{
		RateLimitRPS:   50,
		RateLimitBurst: 100,
		CORS:           middleware.DefaultCORSConfig(),
		Timeout:        30 * time.Second,
		MetricsPrefix:  "clinic_http",
	}
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	metrics  *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, log *logger.Logger, config Config) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		metrics:  initRouterMetrics(config.MetricsPrefix),
	}

	engine.Use(
		middleware.Recovery(log),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
		middleware.RequestID(),
		middleware.Cache(middleware.DefaultCacheConfig()),
	)

	engine.Use(middleware.CORS(config.CORS))

	rateLimiter := middleware.NewRateLimiter(config.RateLimitRPS, config.RateLimitBurst)
	engine.Use(rateLimiter.Middleware())

	return r
}

func (r *Router) Setup() {
	handler.RegisterValidators()

	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	api.GET("/health", r.handlers.Health.Health)

	r.setupPublicRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.setupProtectedRoutes(protected)
}

func (r *Router) setupPublicRoutes(rg *gin.RouterGroup) {
	r.handlers.Auth.RegisterRoutes(rg)
	r.handlers.Doctor.RegisterPublicRoutes(rg)
	r.handlers.Patient.RegisterPublicRoutes(rg)
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	adminOnly := r.auth.RequireRole(model.RoleTypeAdmin)

	r.handlers.Doctor.RegisterRoutes(rg, adminOnly)
	r.handlers.Patient.RegisterRoutes(rg)
	r.handlers.Appointment.RegisterRoutes(rg)
	r.handlers.Vital.RegisterRoutes(rg)
	r.handlers.Message.RegisterRoutes(rg)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
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
