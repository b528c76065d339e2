package router

import (
	"myPromoGame/internal/rest"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRewardRoutes(api *echo.Group, handler *rest.RewardHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	shops := api.Group("/shops/:shopId", authRequired, adminOnly)

	shops.PUT("/rewards", handler.SynchronizeRewards)
	shops.GET("/rewards", handler.ListRewards)
	shops.POST("/draw", handler.Draw)
	shops.GET("/draws", handler.ListDrawEvents)
}

func SetupActionRoutes(api *echo.Group, handler *rest.ActionHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	shops := api.Group("/shops/:shopId")

	shops.GET("/actions", handler.ListActions, authRequired)
	shops.PUT("/actions", handler.SynchronizeActions, authRequired, adminOnly)
}

func SetupPlayRoutes(api *echo.Group, handler *rest.PlayHandler, authRequired echo.MiddlewareFunc) {
	play := api.Group("/shops/:shopId/play", authRequired)

	play.GET("/eligibility", handler.CheckEligibility)
	play.POST("", handler.Play)
}

func SetupMetricsRoute(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
