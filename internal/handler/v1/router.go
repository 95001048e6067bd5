package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/saudecomunitaria/buscativa/internal/config"
	"github.com/saudecomunitaria/buscativa/internal/domain"
	"github.com/saudecomunitaria/buscativa/pkg/auth"
	"github.com/saudecomunitaria/buscativa/pkg/metrics"
)

type RouterDeps struct {
	Config     *config.Config
	Logger     *zap.Logger
	JWTManager *auth.JWTManager
	Collector  *metrics.Collector

	Auth        *AuthHandler
	Patient     *PatientHandler
	Appointment *AppointmentHandler
	Territory   *TerritoryHandler
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(deps.Logger))
	r.Use(Metrics(deps.Collector))
	r.Use(CORS(deps.Config.CORS))
	r.Use(RateLimit(deps.Config.RateLimit))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": deps.Config.App.Name,
			"version": deps.Config.App.Version,
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	v1 := r.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.Use(AuthRateLimit(deps.Config.RateLimit))
	{
		authGroup.POST("/register", deps.Auth.Register)
		authGroup.POST("/login", deps.Auth.Login)
		authGroup.POST("/refresh", deps.Auth.Refresh)
	}
	v1.POST("/auth/change-password", Authenticate(deps.JWTManager), deps.Auth.ChangePassword)

	authed := v1.Group("")
	authed.Use(Authenticate(deps.JWTManager))

	clinical := authed.Group("")
	clinical.Use(RequireRole(domain.RoleAdmin, domain.RoleDoctor, domain.RoleNurse))
	{
		clinical.POST("/patients", deps.Patient.Create)
		clinical.GET("/patients", deps.Patient.List)
		clinical.GET("/patients/:id", deps.Patient.Get)
		clinical.PATCH("/patients/:id", deps.Patient.Update)
		clinical.PUT("/patients/:id/priority", deps.Patient.SetPriority)
		clinical.DELETE("/patients/:id", deps.Patient.Deactivate)

		clinical.POST("/appointments", deps.Appointment.Schedule)
		clinical.GET("/appointments", deps.Appointment.List)
		clinical.GET("/appointments/:id", deps.Appointment.Get)
		clinical.PATCH("/appointments/:id/status", deps.Appointment.UpdateStatus)
	}

	territory := authed.Group("/territory")
	territory.Use(RequireRole(domain.RoleAdmin, domain.RoleAgent))
	{
		territory.GET("/worklist", deps.Territory.WorkList)
		territory.GET("/directory", deps.Territory.Directory)
		territory.GET("/patients/:id/contact", deps.Territory.Contact)
		territory.POST("/patients/:id/notify", deps.Territory.MarkNotified)
		territory.POST("/patients/:id/visit", deps.Territory.MarkVisited)
		territory.GET("/patients/:id/outreach", deps.Territory.OutreachStatus)
		territory.GET("/patients/:id/outreach/history", deps.Territory.OutreachHistory)
	}

	return r
}
