package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk/it-helpdesk/internal/service"
)

// DashboardHandler exposes read-only aggregates under /api/dashboard.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: dashboard}
}

// filtered adapts a service aggregate that takes the ?filter= period into a fiber handler.
func filtered[T any](load func(ctx context.Context, filter string) (T, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		result, err := load(c.UserContext(), c.Query("filter", "all-time"))
		if err != nil {
			return err
		}
		return c.JSON(result)
	}
}

func (h *DashboardHandler) ResolvedReports() fiber.Handler { return filtered(h.service.ResolvedReports) }
func (h *DashboardHandler) TicketStatus() fiber.Handler { return filtered(h.service.TicketStatus) }
func (h *DashboardHandler) TopConcerns() fiber.Handler { return filtered(h.service.TopConcerns) }
func (h *DashboardHandler) TopResolvers() fiber.Handler { return filtered(h.service.TopResolvers) }
func (h *DashboardHandler) TopCreators() fiber.Handler { return filtered(h.service.TopCreators) }
func (h *DashboardHandler) Stats() fiber.Handler { return filtered(h.service.Stats) }
func (h *DashboardHandler) TicketTypes() fiber.Handler { return filtered(h.service.TicketTypes) }
func (h *DashboardHandler) ResolutionRate() fiber.Handler { return filtered(h.service.ResolutionRate) }
func (h *DashboardHandler) DepartmentStats() fiber.Handler { return filtered(h.service.DepartmentStats) }
func (h *DashboardHandler) AverageSeverity() fiber.Handler { return filtered(h.service.AverageSeverity) }

// MonthlyComparison handles GET /monthly-comparison; the filter parameter is ignored.
func (h *DashboardHandler) MonthlyComparison(c *fiber.Ctx) error {
	result, err := h.service.MonthlyComparison(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(result)
}
