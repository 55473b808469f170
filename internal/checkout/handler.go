package checkout

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/wichananm65/coffee-shop-backend/internal/cart"
	"github.com/wichananm65/coffee-shop-backend/internal/session"
)

type Handler struct {
	service *Service
	carts   *cart.Service
	log     *zap.Logger
}

func NewHandler(service *Service, carts *cart.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, carts: carts, log: log}
}

func (h *Handler) RegisterRoutes(r fiber.Router) {
	r.Get("/api/v1/checkout/quote", h.getQuote)
	r.Post("/api/v1/checkout", h.placeOrder)
}

func (h *Handler) getQuote(c *fiber.Ctx) error {
	items := h.carts.Get(c.UserContext(), cart.Owner(c)).Items
	return c.JSON(h.service.Quote(items, c.Query("city"), session.FromCtx(c)))
}

func (h *Handler) placeOrder(c *fiber.Ctx) error {
	form := new(Form)
	if err := c.BodyParser(form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": GenericMessage, "code": KindValidation})
	}

	owner := cart.Owner(c)
	items := h.carts.Get(c.UserContext(), owner).Items

	res, err := h.service.PlaceOrder(c.UserContext(), Request{
		Form:    *form,
		Items:   items,
		Session: session.FromCtx(c),
	})
	if err != nil {
		var cerr *Error
		if !errors.As(err, &cerr) {
			cerr = &Error{Kind: KindPersistence, Err: err}
		}
		if cerr.Kind == KindValidation {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": GenericMessage,
				"code":    cerr.Kind,
				"fields":  cerr.Fields,
			})
		}
		h.log.Error("checkout failed",
			zap.String("kind", string(cerr.Kind)),
			zap.String("step", cerr.Step),
			zap.Int("order_id", cerr.OrderID),
			zap.String("owner", owner),
			zap.Error(cerr.Err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": GenericMessage,
			"code":    cerr.Kind,
		})
	}

	h.carts.Clear(c.UserContext(), owner)
	return c.Status(fiber.StatusCreated).JSON(res)
}
