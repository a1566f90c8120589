package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"rideshare/internal/auth"
	"rideshare/internal/config"
	"rideshare/internal/handler"
	"rideshare/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AuthHandler      *handler.AuthHandler
	UserHandler      *handler.UserHandler
	RoomHandler      *handler.RoomHandler
	RouteHandler     *handler.RouteHandler
	AssistantHandler *handler.AssistantHandler
	LiveHandler      *handler.LiveHandler
	PushHandler      *handler.PushHandler
	Tokens           *auth.JWTManager
	RedisClient      redis.Cmdable
	NewRelicApp      *newrelic.Application
	Registry         *prometheus.Registry
	Server           config.ServerConfig
	RateLimit        config.RateLimitConfig
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(deps.Server.AllowOrigin))
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}
	if deps.Registry != nil {
		router.Use(middleware.NewHTTPMetrics(deps.Registry).Middleware())
	}
	router.Use(middleware.RequestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	// Shared by the auth and assistant routes.
	limiter := middleware.RateLimit(middleware.NewIPRateLimiter(rate.Limit(deps.RateLimit.PerSecond), deps.RateLimit.Burst))

	v1 := router.Group("/v1")

	// Public auth routes.
	authRoutes := v1.Group("/auth", limiter)
	{
		authRoutes.POST("/signup", deps.AuthHandler.SignUp)
		authRoutes.POST("/login", deps.AuthHandler.Login)
		authRoutes.POST("/verify", deps.AuthHandler.Verify)
	}

	// Everything else requires a session.
	private := v1.Group("")
	private.Use(middleware.RequireAuth(deps.Tokens))
	private.Use(middleware.NewRelicAttributes())
	if deps.RedisClient != nil {
		private.Use(middleware.IdempotencyMiddleware(deps.RedisClient))
	}

	// User routes.
	users := private.Group("/users")
	{
		users.GET("/me", deps.UserHandler.Me)
		users.PATCH("/me", deps.UserHandler.UpdateMe)
		users.GET("/:id", deps.UserHandler.GetUser)
	}

	// Room routes.
	rooms := private.Group("/rooms")
	{
		rooms.POST("", deps.RoomHandler.CreateRoom)
		rooms.GET("", deps.RoomHandler.ListRooms)
		rooms.GET("/nearby", deps.RoomHandler.NearbyRooms)
		rooms.GET("/mine", deps.RoomHandler.MyRooms)
		rooms.GET("/:id", deps.RoomHandler.GetRoom)
		rooms.GET("/:id/participants", deps.RoomHandler.Participants)
		rooms.GET("/:id/route", deps.RouteHandler.GetRoute)
		rooms.GET("/:id/summary", limiter, deps.AssistantHandler.Summary)
		rooms.GET("/:id/live", deps.LiveHandler.Live)
		rooms.POST("/:id/join", deps.RoomHandler.JoinRoom)
		rooms.POST("/:id/leave", deps.RoomHandler.LeaveRoom)
		rooms.POST("/:id/complete", deps.RoomHandler.CompleteRoom)
		rooms.POST("/:id/cancel", deps.RoomHandler.CancelRoom)
	}

	// Assistant routes.
	assistant := private.Group("/assistant", limiter)
	{
		assistant.POST("/extract", deps.AssistantHandler.Extract)
		assistant.POST("/suggestions", deps.AssistantHandler.Suggest)
	}

	// Push subscription routes.
	push := private.Group("/push")
	{
		push.PUT("/subscriptions", deps.PushHandler.Subscribe)
		push.DELETE("/subscriptions", deps.PushHandler.Unsubscribe)
	}

	return router
}
