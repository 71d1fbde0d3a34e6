package server

import (
	"time"

	httpHandler "linkhub/interfaces/http"
	"linkhub/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var defaultOrigins = []string{"http://localhost:3000", "http://localhost:4200", "https://localhost:4200"}

func InitiateRouter(
	secretKey string,
	allowedOrigins []string,
	postHandler httpHandler.IPostHandler,
	socialHandler httpHandler.ISocialHandler,
	notificationHandler httpHandler.INotificationHandler,
	jobsHandler httpHandler.IJobsHandler,
	healthHandler httpHandler.IHealthHandler,
	stream gin.HandlerFunc,
) *gin.Engine {
	origins := append([]string{}, defaultOrigins...)
	for _, o := range allowedOrigins {
		if o != "" {
			origins = append(origins, o)
		}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", healthHandler.Healthz)

	// Providers redirect the browser here, so there is no bearer token
	router.GET("/social/callback/:provider", socialHandler.Callback)
	router.POST("/social/callback/:provider", socialHandler.Callback)

	api := router.Group("api")
	api.Use(middleware.Auth(secretKey))

	posts := api.Group("/posts")
	{
		posts.POST("", postHandler.Create)
		posts.GET("", postHandler.List)
		if stream != nil {
			posts.GET("/stream", stream)
		}
		posts.GET("/:id", postHandler.Get)
		posts.PATCH("/:id", postHandler.Update)
		posts.POST("/:id/publish", postHandler.PublishNow)
		posts.DELETE("/:id", postHandler.Cancel)
	}

	social := api.Group("/social")
	{
		social.GET("/accounts", socialHandler.Accounts)
		social.DELETE("/accounts/:id", socialHandler.Revoke)
		social.GET("/connect/:provider", socialHandler.Connect)
		social.POST("/refresh/:provider", socialHandler.Refresh)
	}

	api.GET("/notifications", notificationHandler.List)

	if jobsHandler != nil {
		api.GET("/jobs", jobsHandler.List)
		api.POST("/jobs/:name/run", jobsHandler.Run)
	}

	return router
}
