package fakecompute

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter creates the Gin router with all routes and middleware.
//
// Resources are served under /compute/:version/projects/:project:
// - "" is the project itself
// - /zones and /zones/:zone are the zones
// - /zones/:zone/:collection[/:name] are per-zone resources and operations
// - /global/:collection[/:name] are global resources and operations
// - /:collection[/:name] are top-level collections, and every collection
//   for clients of unscoped API versions
//
// /metrics serves the server's own request metrics.
func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(s.metricsMiddleware())
	router.Use(requestLogger(s.logger))

	if s.config.RequestsPerSecond > 0 {
		router.Use(rateLimitByIP(s.config.RequestsPerSecond, s.config.Burst))
	}

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
		s.registry,
		promhttp.HandlerOpts{},
	)))

	project := router.Group("/compute/:version/projects/:project")
	project.Use(requireVersion())
	if s.config.AccessToken != "" {
		project.Use(requireBearer(s.config.AccessToken))
	}
	project.Use(s.recordCalls())
	{
		project.GET("", s.getProject)

		project.GET("/zones", s.listZones)
		project.GET("/zones/:zone", s.getZone)

		zone := project.Group("/zones/:zone")
		{
			zone.GET("/:collection", s.listResources)
			zone.POST("/:collection", s.insertResource)
			zone.GET("/:collection/:name", s.getResource)
			zone.DELETE("/:collection/:name", s.deleteResource)
		}

		global := project.Group("/global", markGlobal)
		{
			global.GET("/:collection", s.listResources)
			global.POST("/:collection", s.insertResource)
			global.GET("/:collection/:name", s.getResource)
			global.DELETE("/:collection/:name", s.deleteResource)
		}

		project.GET("/:collection", s.listResources)
		project.POST("/:collection", s.insertResource)
		project.GET("/:collection/:name", s.getResource)
		project.DELETE("/:collection/:name", s.deleteResource)
	}

	return router
}
