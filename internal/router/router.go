// Package router assembles the gin engine for the admin API.
package router

import (
	"time"

	"babelflag/internal/handler"
	"babelflag/internal/middleware"
	"babelflag/internal/types"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the admin API router.
func NewRouter(serverHandler *handler.Server, configManager types.ConfigManager) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Logger(configManager.GetLogConfig()))
	router.Use(middleware.SecurityHeaders())
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	startTime := time.Now()
	router.Use(func(c *gin.Context) {
		c.Set("serverStartTime", startTime)
		c.Next()
	})

	registerSystemRoutes(router, serverHandler)
	registerAPIRoutes(router, serverHandler, configManager)

	return router
}

// registerSystemRoutes registers system-level routes.
func registerSystemRoutes(router *gin.Engine, serverHandler *handler.Server) {
	router.GET("/health", serverHandler.Health)
}

// registerAPIRoutes registers the authenticated API routes.
func registerAPIRoutes(router *gin.Engine, serverHandler *handler.Server, configManager types.ConfigManager) {
	api := router.Group("/api")
	api.Use(middleware.Auth(configManager.GetAuthConfig()))

	guilds := api.Group("/guilds")
	{
		guilds.GET("", serverHandler.ListGuilds)
		guilds.GET("/:guild_id", serverHandler.GetGuild)
		guilds.POST("/:guild_id/languages", serverHandler.AddGuildLanguage)
		guilds.DELETE("/:guild_id/languages/:lang", serverHandler.RemoveGuildLanguage)
		guilds.PUT("/:guild_id/mode", serverHandler.UpdateGuildMode)
		guilds.GET("/:guild_id/stats", serverHandler.GetGuildStats)
	}

	logs := api.Group("/logs")
	{
		logs.GET("", serverHandler.GetLogs)
	}

	api.GET("/usage", serverHandler.GetUsage)
	api.GET("/defaults", serverHandler.GetDefaults)
}
