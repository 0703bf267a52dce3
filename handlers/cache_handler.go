package handlers

import (
	"github.com/fenilmodi00/vnmarket/services"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type CacheHandler struct {
	Cache *services.CacheService
}

func NewCacheHandler(cache *services.CacheService) *CacheHandler {
	return &CacheHandler{Cache: cache}
}

// ClearCache drops every cached snapshot
func (h *CacheHandler) ClearCache(c *fiber.Ctx) error {
	cleared := h.Cache.Size()
	h.Cache.Clear()

	logrus.WithField("cleared", cleared).Info("Snapshot cache cleared via API")

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Snapshot cache cleared",
		"cleared": cleared,
	})
}
