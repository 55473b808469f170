package consent

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	owner   func(*fiber.Ctx) string
}

// NewHandler takes the same owner resolution the cart uses so the flag lives
// in the visitor's namespace.
func NewHandler(service *Service, owner func(*fiber.Ctx) string) *Handler {
	return &Handler{service: service, owner: owner}
}

func (h *Handler) RegisterRoutes(r fiber.Router) {
	r.Get("/api/v1/consent", h.getConsent)
	r.Put("/api/v1/consent", h.putConsent)
}

type consentRequest struct {
	Accepted *bool `json:"accepted"`
}

func (h *Handler) getConsent(c *fiber.Ctx) error {
	return c.JSON(h.service.Get(c.UserContext(), h.owner(c)))
}

func (h *Handler) putConsent(c *fiber.Ctx) error {
	payload := new(consentRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.Accepted == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "accepted is required"})
	}
	state, err := h.service.Set(c.UserContext(), h.owner(c), *payload.Accepted)
	if err != nil {
		h.service.log.Warn("consent write failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "could not store consent"})
	}
	return c.JSON(state)
}
