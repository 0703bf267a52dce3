package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp builds the fiber application with every serve-mode route registered
func NewApp(marketHandler *MarketHandler, cacheHandler *CacheHandler, performanceHandler *PerformanceHandler) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	api := app.Group("/api/v1")

	// Market Routes
	market := api.Group("/market")
	market.Get("/portfolio-data", marketHandler.GetPortfolioData)
	market.Get("/alerts", marketHandler.GetAlerts)
	market.Get("/symbol/:symbol", marketHandler.GetSymbolMapping)
	market.Get("/variants", marketHandler.GetVariants)
	market.Get("/metrics", marketHandler.GetMetrics)
	market.Delete("/metrics", marketHandler.ResetMetrics)
	market.Get("/performance", performanceHandler.GetPerformanceMetrics)
	market.Delete("/cache", cacheHandler.ClearCache)

	return app
}
