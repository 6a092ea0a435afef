package restapi

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRouter wires the handlers, CORS, request logging and the Prometheus
// endpoint into a gin engine.
func SetupRouter(handler *BalanceHandler, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.Use(ZapLoggerMiddleware(logger))
	router.Use(gin.Recovery())

	api := router.Group("/api")
	{
		api.GET("/balance/:address", handler.GetBalanceHandler)
		api.GET("/prices", handler.GetPricesHandler)
		api.GET("/fiat-prices", handler.GetFiatPricesHandler)
		api.GET("/networks", handler.GetNetworksHandler)
	}

	router.GET("/health", handler.HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
