package handlers

import (
	"errors"
	"fmt"

	"github.com/fenilmodi00/vnmarket/services"
	"github.com/fenilmodi00/vnmarket/shared"
	"github.com/gofiber/fiber/v2"
)

type MarketHandler struct {
	Service       *services.CachedSnapshotService
	DefaultPolicy *services.Policy
}

func NewMarketHandler(service *services.CachedSnapshotService, defaultPolicy *services.Policy) *MarketHandler {
	return &MarketHandler{
		Service:       service,
		DefaultPolicy: defaultPolicy,
	}
}

// resolvePolicy picks the policy named by ?variant=, carrying over the
// configured news limit and alert cap
func (h *MarketHandler) resolvePolicy(c *fiber.Ctx) (*services.Policy, error) {
	variant := c.Query("variant")
	if variant == "" || variant == h.DefaultPolicy.Name {
		return h.DefaultPolicy, nil
	}

	policy, err := services.PolicyFor(variant)
	if err != nil {
		return nil, err
	}
	policy.NewsLimit = h.DefaultPolicy.NewsLimit
	policy.MaxAlerts = h.DefaultPolicy.MaxAlerts
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return policy, nil
}

func (h *MarketHandler) requestedSymbols(c *fiber.Ctx, policy *services.Policy) []string {
	raw := c.Query("symbols")
	if raw == "" {
		return policy.Universe()
	}
	return services.SplitSymbols(raw)
}

// GetPortfolioData returns a full snapshot for ?symbols=
func (h *MarketHandler) GetPortfolioData(c *fiber.Ctx) error {
	policy, err := h.resolvePolicy(c)
	if err != nil {
		return badRequest(c, err)
	}

	snapshot := h.Service.GetSnapshot(policy, h.requestedSymbols(c, policy))
	return c.JSON(fiber.Map{
		"success": true,
		"data":    snapshot,
	})
}

// GetAlerts returns only the alerts of the snapshot for ?symbols=
func (h *MarketHandler) GetAlerts(c *fiber.Ctx) error {
	policy, err := h.resolvePolicy(c)
	if err != nil {
		return badRequest(c, err)
	}

	snapshot := h.Service.GetSnapshot(policy, h.requestedSymbols(c, policy))
	return c.JSON(fiber.Map{
		"success": true,
		"data":    snapshot.Alerts,
	})
}

// GetSymbolMapping identifies the market a symbol belongs to
func (h *MarketHandler) GetSymbolMapping(c *fiber.Ctx) error {
	mapping := services.IdentifyMarket(c.Params("symbol"))
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"mapping":        mapping,
			"recommendation": fmt.Sprintf("Use %s API for %s", mapping.APIProvider, mapping.Symbol),
		},
	})
}

// GetVariants lists the built-in generator variants
func (h *MarketHandler) GetVariants(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"variants": services.VariantNames(),
			"default":  h.DefaultPolicy.Name,
		},
	})
}

// GetMetrics returns the generator metrics snapshot
func (h *MarketHandler) GetMetrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.Service.SnapshotService().GetServiceMetrics().GetSnapshot(),
	})
}

// ResetMetrics zeroes the generator metrics
func (h *MarketHandler) ResetMetrics(c *fiber.Ctx) error {
	h.Service.SnapshotService().GetServiceMetrics().Reset()
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Metrics reset successfully",
	})
}

func badRequest(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var serviceErr *shared.ServiceError
	if shared.IsValidationError(err) || (errors.As(err, &serviceErr) && serviceErr.Category == shared.ErrorCategoryConfiguration) {
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}
