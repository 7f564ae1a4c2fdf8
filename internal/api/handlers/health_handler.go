package handlers

import "github.com/gofiber/fiber/v2"

// Health godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/health [get]
func Health(backend string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"store":  backend,
		})
	}
}
