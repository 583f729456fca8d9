package router

import (
	"github.com/caliper-tracking/caliper-tracking-backend/config"
	"github.com/caliper-tracking/caliper-tracking-backend/handlers"
	"github.com/caliper-tracking/caliper-tracking-backend/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Dependencies struct holds all dependencies required for setting up routes.
type Dependencies struct {
	Config              *config.Config
	TrackingHandler     *handlers.TrackingHandler
	NotificationHandler *handlers.NotificationHandler
	HealthHandler       *handlers.HealthHandler
	// Gatherer serves /metrics. Defaults to the global Prometheus registry.
	Gatherer prometheus.Gatherer
}

// SetupRouter configures and returns the main Gin engine with all routes defined.
func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if deps.Config.Server.Environment != config.EnvProduction {
		r.Use(gin.Logger())
	}

	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(&deps.Config.Server))

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r.GET("/health", deps.HealthHandler.DetailedHealth)
	r.GET("/health/liveness", deps.HealthHandler.LivenessCheck)
	r.GET("/health/readiness", deps.HealthHandler.ReadinessCheck)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/v1")
	v1.Use(middleware.ServiceTokenAuth(deps.Config.Server.ServiceTokenSecret))
	{
		v1.POST("/datetime/convert", deps.TrackingHandler.ConvertDatetimeHandler)

		v1.GET("/users/:userId/username", deps.TrackingHandler.GetUsernameHandler)
		v1.GET("/usernames/:username/link", deps.TrackingHandler.GetUserLinkHandler)

		teamRoutes := v1.Group("/teams/:teamId")
		{
			teamRoutes.GET("/topic", deps.TrackingHandler.GetTeamTopicHandler)
			teamRoutes.GET("/url", deps.TrackingHandler.GetTeamURLHandler)
		}

		v1.GET("/certificates/url", deps.TrackingHandler.GetCertificateURLHandler)
		v1.POST("/notifications", deps.NotificationHandler.SendNotificationHandler)
	}

	return r
}
