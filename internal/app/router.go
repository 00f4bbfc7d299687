package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"rideshare/internal/handler"
	"rideshare/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	UserHandler *handler.UserHandler
	RideHandler *handler.RideHandler
	RedisClient *redis.Client
	NewRelicApp *newrelic.Application
	Log         *logrus.Logger
	AuthLimiter *middleware.RateLimiter
	AllowedCORS string
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	if deps.Log != nil {
		router.Use(middleware.RequestLogger(deps.Log))
	}
	router.Use(middleware.CORSMiddleware(deps.AllowedCORS))

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := router.Group("")
	if deps.AuthLimiter != nil {
		auth.Use(deps.AuthLimiter.LimitMiddleware())
	}
	{
		auth.POST("/signup", deps.UserHandler.Signup)
		auth.POST("/login", deps.UserHandler.Login)
	}

	// Replay stays on /rides so issued tokens are never stored.
	rides := router.Group("/rides")
	rides.Use(middleware.IdempotencyMiddleware(deps.RedisClient, deps.Log))
	{
		rides.POST("", deps.RideHandler.CreateRide)
		rides.GET("", deps.RideHandler.GetAll)
		rides.GET("/:id", deps.RideHandler.GetRide)
		rides.PUT("/:id", deps.RideHandler.UpdateRide)
		rides.DELETE("/:phone_no", deps.RideHandler.DeleteRides)
	}

	return router
}
