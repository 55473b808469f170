package shipping

import "github.com/gofiber/fiber/v2"

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(r fiber.Router) {
	r.Get("/api/v1/shipping", h.getQuote)
}

func (h *Handler) getQuote(c *fiber.Ctx) error {
	city := c.Query("city")
	if city == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "city is required"})
	}
	return c.JSON(fiber.Map{
		"city":          city,
		"cost":          CalculateShipping(city).StringFixed(2),
		"estimatedDays": EstimatedDays(city),
	})
}
