package notification

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler exposes the email boundary to the admin console.
type Handler struct {
	notifier Notifier
	log      *zap.Logger
}

func NewHandler(n Notifier, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{notifier: n, log: log}
}

// RegisterAdminRoutes expects r to be already guarded by an admin role check.
func (h *Handler) RegisterAdminRoutes(r fiber.Router) {
	r.Post("/notifications/email", h.sendEmail)
}

func (h *Handler) sendEmail(c *fiber.Ctx) error {
	payload := new(Email)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	errs := map[string]string{}
	if len(payload.To) == 0 {
		errs["to"] = "at least one recipient is required"
	}
	if payload.Subject == "" {
		errs["subject"] = "subject is required"
	}
	if payload.HTML == "" {
		errs["html"] = "html is required"
	}
	if len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": errs})
	}

	resp, err := h.notifier.Send(c.UserContext(), *payload)
	var se *StatusError
	switch {
	case errors.As(err, &se):
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(se.Status).Send(se.Body)
	case err != nil:
		h.log.Error("admin email failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": err.Error()})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(resp.Status).Send(resp.Body)
}
