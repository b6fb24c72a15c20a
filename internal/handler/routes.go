package handler

import (
	"github.com/dafibh/fortuna/fortuna-analytics/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, analyticsHandler *AnalyticsHandler, budgetHandler *BudgetHandler, alertStream *AlertStreamHandler) {
	// Alert stream authenticates with ?token=, outside the bearer-auth group
	e.GET("/ws", alertStream.Stream)

	// API version 1
	api := e.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())
	api.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Analytics routes (protected)
	analytics := api.Group("/analytics")
	analytics.GET("/categories", analyticsHandler.GetCategoryTotals)
	analytics.GET("/monthly", analyticsHandler.GetMonthlySeries)
	analytics.GET("/category-matrix", analyticsHandler.GetCategoryMatrix)
	analytics.GET("/report", analyticsHandler.GetReport)
	analytics.POST("/report", analyticsHandler.BuildReport)
	analytics.POST("/report/export", analyticsHandler.ExportReport)
	analytics.GET("/balance", analyticsHandler.GetBalance)
	analytics.GET("/forecast", analyticsHandler.GetForecast)

	// Budget routes (protected)
	budgets := api.Group("/budgets")
	budgets.GET("/alert", budgetHandler.GetAlert)
}
