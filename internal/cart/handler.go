package cart

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/wichananm65/coffee-shop-backend/internal/product"
	"github.com/wichananm65/coffee-shop-backend/internal/session"
)

// CartIDHeader carries the anonymous cart id between client and server.
const CartIDHeader = "X-Cart-ID"

// Catalog is the product lookup used to price new cart lines.
type Catalog interface {
	GetByID(ctx context.Context, id int) (product.Product, error)
}

type Handler struct {
	service *Service
	catalog Catalog
}

func NewHandler(s *Service, catalog Catalog) *Handler {
	return &Handler{service: s, catalog: catalog}
}

func (h *Handler) RegisterRoutes(r fiber.Router) {
	r.Get("/api/v1/cart", h.getCart)
	r.Post("/api/v1/cart/items", h.addItem)
	r.Patch("/api/v1/cart/items/:id", h.updateItem)
	r.Delete("/api/v1/cart/items/:id", h.removeItem)
	r.Delete("/api/v1/cart", h.clearCart)
}

// Owner returns the storage namespace of the request's cart. Anonymous
// visitors without a valid X-Cart-ID get a fresh id, echoed back in the
// response header.
func Owner(c *fiber.Ctx) string {
	if s := session.FromCtx(c); s != nil {
		return s.Owner()
	}
	id, err := uuid.Parse(c.Get(CartIDHeader))
	if err != nil {
		id = uuid.New()
	}
	c.Set(CartIDHeader, id.String())
	return AnonymousOwner(id.String())
}

// AnonymousOwner is the storage namespace of an anonymous cart id.
func AnonymousOwner(cartID string) string {
	return "anon:" + cartID
}

func view(c *Cart) fiber.Map {
	items := c.Items
	if items == nil {
		items = []Item{}
	}
	return fiber.Map{
		"items":      items,
		"total":      c.Total(),
		"count":      c.Count(),
		"drawerOpen": c.DrawerOpen,
	}
}

type addItemRequest struct {
	ProductID int    `json:"productId"`
	Variant   string `json:"variant,omitempty"`
	Quantity  int    `json:"quantity"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	return c.JSON(view(h.service.Get(c.UserContext(), Owner(c))))
}

func (h *Handler) addItem(c *fiber.Ctx) error {
	payload := new(addItemRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.ProductID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid productId"})
	}

	p, err := h.catalog.GetByID(c.UserContext(), payload.ProductID)
	if err != nil || !p.Active {
		if err == nil || errors.Is(err, product.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "product not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}

	id := strconv.Itoa(p.ID)
	if payload.Variant != "" {
		id += ":" + payload.Variant
	}
	item := Item{
		ID:        id,
		Name:      p.Name,
		Subtitle:  p.Subtitle,
		UnitPrice: p.Price,
		Quantity:  payload.Quantity,
		ImageRef:  p.ImageRef,
	}
	return c.JSON(view(h.service.Add(c.UserContext(), Owner(c), item)))
}

// itemID returns the decoded :id param. Variant ids may contain characters
// the client had to percent-encode.
func itemID(c *fiber.Ctx) (string, error) {
	return url.PathUnescape(c.Params("id"))
}

func (h *Handler) updateItem(c *fiber.Ctx) error {
	id, err := itemID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid item id"})
	}
	payload := new(updateItemRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.Quantity == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "quantity is required"})
	}
	return c.JSON(view(h.service.UpdateQty(c.UserContext(), Owner(c), id, *payload.Quantity)))
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	id, err := itemID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid item id"})
	}
	return c.JSON(view(h.service.Remove(c.UserContext(), Owner(c), id)))
}

func (h *Handler) clearCart(c *fiber.Ctx) error {
	h.service.Clear(c.UserContext(), Owner(c))
	return c.SendStatus(fiber.StatusNoContent)
}
