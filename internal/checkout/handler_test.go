package checkout

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/coffee-shop-backend/internal/cart"
	"github.com/wichananm65/coffee-shop-backend/internal/session"
	"github.com/wichananm65/coffee-shop-backend/internal/storage"
)

func makeAppWithCheckoutHandler(h *Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				session.Attach(c, &session.Session{UserID: id, Role: session.RoleUser})
			}
		}
		return c.Next()
	})
	h.RegisterRoutes(app)
	return app
}

func checkoutBody(t *testing.T, f Form) string {
	t.Helper()
	b, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal form: %v", err)
	}
	return string(b)
}

func fillCart(carts *cart.Service, owner string) {
	for _, it := range sampleItems() {
		carts.Add(context.Background(), owner, it)
	}
}

func TestCheckoutRoutes_Success(t *testing.T) {
	f := newFixture()
	carts := cart.NewService(cart.NewStorageRepository(storage.NewMemory()), nil)
	fillCart(carts, "user:9")
	app := makeAppWithCheckoutHandler(NewHandler(NewService(f.opts), carts, nil))

	req := httptest.NewRequest("GET", "/api/v1/checkout/quote?city=Medell%C3%ADn", nil)
	req.Header.Set("X-User-ID", "9")
	res, _ := app.Test(req)
	var q map[string]any
	json.NewDecoder(res.Body).Decode(&q)
	if q["total"] != "27.5" || q["discount"] != "2.5" {
		t.Fatalf("unexpected member quote %v", q)
	}

	req = httptest.NewRequest("POST", "/api/v1/checkout", strings.NewReader(checkoutBody(t, sampleForm())))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "9")
	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("checkout request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", res.StatusCode)
	}
	var body map[string]any
	json.NewDecoder(res.Body).Decode(&body)
	if body["redirectTo"] != "/account" || body["redirectAfterMs"] != float64(3000) {
		t.Fatalf("unexpected redirect fields %v", body)
	}
	if len(carts.Get(context.Background(), "user:9").Items) != 0 {
		t.Fatalf("cart should be cleared after a successful checkout")
	}
}

func TestCheckoutRoutes_StockFailure(t *testing.T) {
	f := newFixture()
	f.opts.Inventory = failingInventory{}
	carts := cart.NewService(cart.NewStorageRepository(storage.NewMemory()), nil)
	fillCart(carts, "user:9")
	app := makeAppWithCheckoutHandler(NewHandler(NewService(f.opts), carts, nil))

	req := httptest.NewRequest("POST", "/api/v1/checkout", strings.NewReader(checkoutBody(t, sampleForm())))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "9")
	res, _ := app.Test(req, -1)
	if res.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.StatusCode)
	}
	var body map[string]any
	json.NewDecoder(res.Body).Decode(&body)
	if body["message"] != GenericMessage || body["code"] != string(KindInventory) {
		t.Fatalf("unexpected failure body %v", body)
	}

	if len(carts.Get(context.Background(), "user:9").Items) != 2 {
		t.Fatalf("cart must survive a failed checkout")
	}
	all, _ := f.orders.ListAll(context.Background())
	if len(all) != 1 || all[0].Status != "pending" || all[0].PaymentID != nil {
		t.Fatalf("expected one pending unpaid order, got %+v", all)
	}
}

func TestCheckoutRoutes_ValidationAndEmptyCart(t *testing.T) {
	f := newFixture()
	carts := cart.NewService(cart.NewStorageRepository(storage.NewMemory()), nil)
	app := makeAppWithCheckoutHandler(NewHandler(NewService(f.opts), carts, nil))

	req := httptest.NewRequest("POST", "/api/v1/checkout", strings.NewReader(checkoutBody(t, sampleForm())))
	req.Header.Set("Content-Type", "application/json")
	res, _ := app.Test(req, -1)
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for empty cart, got %d", res.StatusCode)
	}
	var body map[string]any
	json.NewDecoder(res.Body).Decode(&body)
	if body["message"] != GenericMessage || body["fields"] == nil {
		t.Fatalf("unexpected validation body %v", body)
	}
	if res.Header.Get(cart.CartIDHeader) == "" {
		t.Fatalf("anonymous checkout should echo a cart id")
	}
}
