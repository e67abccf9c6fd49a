package routes

import (
	"net/http"
	"time"

	"vitalwatch/config"
	"vitalwatch/controllers"
	"vitalwatch/middleware"
	"vitalwatch/services"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires the HTTP surface onto the pipeline services.
func SetupRoutes(
	cfg *config.Config,
	clients *config.Clients,
	vitalsService *services.VitalsService,
	alertService *services.AlertService,
	wsController *controllers.WSController,
	preferenceController *controllers.PreferenceController,
) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestLogger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now()})
	})

	auth := middleware.NewAuthMiddleware(cfg.JWTSecret)
	limiter := middleware.NewRateLimiter(clients.Redis, cfg.RateLimitRequests, time.Duration(cfg.RateLimitWindowMin)*time.Minute)

	vitalsController := controllers.NewVitalsController(vitalsService)
	alertController := controllers.NewAlertController(alertService)

	v1 := router.Group("/api/v1")
	v1.Use(auth.RequireAuth())
	{
		v1.POST("/vitals", limiter.Limit(), vitalsController.IngestVitals)

		alerts := v1.Group("/alerts")
		{
			alerts.POST("", alertController.CreateAlert)
			alerts.GET("", alertController.ListAlerts)
			alerts.GET("/:id", alertController.GetAlert)
			alerts.POST("/:id/acknowledge", alertController.AcknowledgeAlert)
			alerts.POST("/:id/escalate", alertController.EscalateAlert)
		}

		v1.GET("/preferences", preferenceController.GetPreferences)
		v1.PUT("/preferences", preferenceController.UpdatePreferences)

		v1.GET("/ws", wsController.Connect)
	}

	return router
}
