package app

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"krida.io/dealdesk/internal/api/handlers"
	"krida.io/dealdesk/internal/api/middleware"
	"krida.io/dealdesk/internal/config"
	"krida.io/dealdesk/internal/pkg/metrics"
)

func newRouter(cfg *config.Config, server *handlers.Server, sim *middleware.Simulator, m *metrics.Metrics) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.ErrorHandler(m),
		middleware.Chaos(sim, m),
		cors.New(corsConfig(cfg)),
	)

	server.RegisterRoutes(router, middleware.BearerAuth(cfg.Auth.APIToken))
	return router
}

// corsConfig allows all origins when none are configured; credentialed
// requests require an explicit origin list.
func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{
		"Authorization", "Content-Type",
		middleware.RequestIDHeader, middleware.LatencyHeader, middleware.ErrorHeader,
	}
	corsCfg.ExposeHeaders = []string{middleware.RequestIDHeader}
	if len(cfg.CORS.Origins) == 0 {
		corsCfg.AllowAllOrigins = true
		return corsCfg
	}
	corsCfg.AllowOrigins = cfg.CORS.Origins
	corsCfg.AllowCredentials = true
	return corsCfg
}
