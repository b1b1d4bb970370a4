package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/faltometro/faltometro-api/internal/handler"
	"github.com/faltometro/faltometro-api/internal/middleware"
	"github.com/faltometro/faltometro-api/internal/service"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth    *handler.AuthHandler
	Subject *handler.SubjectHandler
	Absence *handler.AbsenceHandler
	Export  *handler.ExportHandler
	Metrics *handler.MetricsHandler
}

// Register mounts all routes on the engine under the given prefix.
func Register(r *gin.Engine, prefix string, authService *service.AuthService, metricsService *service.MetricsService, h Handlers) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	if h.Metrics != nil {
		r.GET("/metrics", h.Metrics.Prometheus)
	}

	api := r.Group(prefix)
	api.Use(middleware.Metrics(metricsService))

	users := api.Group("/users")
	{
		users.POST("/register", h.Auth.Register)
		users.POST("/login", h.Auth.Login)
	}

	subjects := api.Group("/subjects")
	subjects.Use(middleware.JWT(authService))
	{
		subjects.GET("", h.Subject.List)
		subjects.POST("", h.Subject.Create)
		subjects.GET("/export", h.Export.Download)
		subjects.PUT("/:id", h.Subject.Update)
		subjects.DELETE("/:id", h.Subject.Delete)
		subjects.GET("/:id/absences", h.Absence.List)
		subjects.POST("/:id/absences", h.Absence.Add)
		subjects.DELETE("/:id/absences/:recordId", h.Absence.Remove)
	}
}
