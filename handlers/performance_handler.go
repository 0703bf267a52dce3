package handlers

import (
	"time"

	"github.com/fenilmodi00/vnmarket/services"
	"github.com/gofiber/fiber/v2"
)

type PerformanceHandler struct {
	Service       *services.CachedSnapshotService
	DefaultPolicy *services.Policy
}

func NewPerformanceHandler(service *services.CachedSnapshotService, defaultPolicy *services.Policy) *PerformanceHandler {
	return &PerformanceHandler{
		Service:       service,
		DefaultPolicy: defaultPolicy,
	}
}

// GetPerformanceMetrics times a fresh and a cached generation of the full universe
func (h *PerformanceHandler) GetPerformanceMetrics(c *fiber.Ctx) error {
	metrics := make(map[string]interface{})
	universe := h.DefaultPolicy.Universe()

	// Test 1: uncached generation
	start := time.Now()
	snapshot := h.Service.SnapshotService().Generate(h.DefaultPolicy, universe)
	metrics["generate"] = map[string]interface{}{
		"duration_us": time.Since(start).Microseconds(),
		"quotes":      len(snapshot.MarketData),
		"alerts":      len(snapshot.Alerts),
		"cached":      false,
	}

	// Test 2: cached generation; the unmeasured call fills the cache first
	h.Service.GetSnapshot(h.DefaultPolicy, universe)
	start = time.Now()
	cached := h.Service.GetSnapshot(h.DefaultPolicy, universe)
	metrics["generate_cached"] = map[string]interface{}{
		"duration_us": time.Since(start).Microseconds(),
		"quotes":      len(cached.MarketData),
		"cached":      true,
	}

	metrics["cache"] = map[string]interface{}{
		"size": h.Service.Cache().Size(),
	}

	serviceMetrics := h.Service.SnapshotService().GetServiceMetrics().GetSnapshot()
	metrics["service"] = map[string]interface{}{
		"total_requests":          serviceMetrics.TotalRequests,
		"success_rate":            serviceMetrics.SuccessRate,
		"average_processing_time": serviceMetrics.AverageProcessingTime.String(),
		"p95_processing_time":     serviceMetrics.P95ProcessingTime.String(),
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    metrics,
		"variant": h.DefaultPolicy.Name,
	})
}
