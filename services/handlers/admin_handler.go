package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/dentis-care/dentis-api/shared"
)

// AdminHandler exposes operational controls; every route sits behind the
// admin role gate.
type AdminHandler struct {
	rateLimitSvc RateLimitServiceInterface
}

func NewAdminHandler(rateLimitSvc RateLimitServiceInterface) *AdminHandler {
	return &AdminHandler{rateLimitSvc: rateLimitSvc}
}

// @Summary Rate limiter stats
// @Description Active limiter configurations and store statistics
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} shared.Response
// @Router /api/v1/admin/rate-limits [get]
func (h *AdminHandler) RateLimitStats(c *fiber.Ctx) error {
	return shared.ResponseJSON(c, http.StatusOK, "Rate limit stats", h.rateLimitSvc.Stats())
}

// @Summary Reset a rate limit counter
// @Description Clear the counter window for one identity under one prefix
// @Tags admin
// @Produce json
// @Security Bearer
// @Param prefix path string true "Limiter key prefix" example(auth)
// @Param identity path string true "User id or client IP" example(usr_0193e4b2)
// @Success 200 {object} shared.Response
// @Router /api/v1/admin/rate-limits/{prefix}/{identity} [delete]
func (h *AdminHandler) ResetRateLimit(c *fiber.Ctx) error {
	prefix := c.Params("prefix")
	identity := c.Params("identity")

	if prefix == "" || identity == "" {
		return shared.NewBadRequestError(nil, "prefix and identity are required")
	}

	if err := h.rateLimitSvc.ResetKey(c.UserContext(), prefix, identity); err != nil {
		return err
	}

	return shared.ResponseOK(c, nil)
}
