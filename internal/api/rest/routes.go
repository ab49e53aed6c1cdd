package rest

import (
	"github.com/Dhoini/Subscription-ledger/internal/api/rest/handlers"
	restmw "github.com/Dhoini/Subscription-ledger/internal/api/rest/middleware"
	"github.com/Dhoini/Subscription-ledger/internal/middleware"
	"github.com/Dhoini/Subscription-ledger/internal/service"
	"github.com/Dhoini/Subscription-ledger/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps зависимости HTTP-маршрутизатора
type RouterDeps struct {
	Service  service.SubscriptionService
	Auth     *middleware.JWTMiddleware
	Registry *prometheus.Registry
	Version  string
	Log      *logger.Logger
}

// SetupRouter настраивает маршруты HTTP API
func SetupRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(restmw.LoggerMiddleware(deps.Log))

	healthHandler := handlers.NewHealthHandler(deps.Version)
	subscriptionHandler := handlers.NewSubscriptionHandler(deps.Service, deps.Log)
	tierHandler := handlers.NewTierHandler(deps.Service, deps.Log)
	adminHandler := handlers.NewAdminHandler(deps.Service, deps.Log)
	credentialHandler := handlers.NewCredentialHandler(deps.Service, deps.Log)

	router.GET("/health", healthHandler.Check)
	if deps.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1")
	{
		subscriptions := api.Group("/subscriptions")
		{
			// Покупка требует токен: покупатель - subject токена,
			// специальный scope не нужен
			subscriptions.POST("/purchase", deps.Auth.RequireAuth(), subscriptionHandler.Purchase)
			subscriptions.GET("/summary", subscriptionHandler.Summary)
			subscriptions.GET("/:account", subscriptionHandler.Get)
			subscriptions.GET("/:account/access", subscriptionHandler.CheckAccess)
		}

		api.GET("/tiers/:id", tierHandler.Get)

		admin := api.Group("/admin")
		admin.Use(deps.Auth.RequireAuth("admin"))
		{
			admin.PUT("/tiers/:id", tierHandler.Set)
			admin.POST("/processor", adminHandler.SetProcessor)
			admin.DELETE("/subscriptions/:account", adminHandler.Cancel)
			admin.POST("/withdraw", adminHandler.Withdraw)
			admin.POST("/gateway/pause", adminHandler.PauseGateway)
			admin.POST("/gateway/unpause", adminHandler.UnpauseGateway)
			admin.POST("/registry/pause", adminHandler.PauseRegistry)
			admin.POST("/registry/unpause", adminHandler.UnpauseRegistry)
			admin.POST("/credentials", credentialHandler.Mint)
			admin.DELETE("/credentials/:id", credentialHandler.Burn)
		}
	}

	return router
}
