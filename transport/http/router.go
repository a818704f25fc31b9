package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/degenlabs/flipgate/service"
)

// SetupRouter sets up the Gin router.
func SetupRouter(playService *service.PlayService, throttle ThrottleConfig) *gin.Engine {
	router := gin.Default()
	router.Use(ThrottleMiddleware(throttle))

	handlers := NewPlayHandlers(playService)

	api := router.Group("/api")
	{
		api.GET("/challenge", handlers.Challenge)
		api.POST("/play", handlers.Play)
		api.GET("/whitelist", handlers.Whitelist)
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
