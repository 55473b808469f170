package category

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/wichananm65/coffee-shop-backend/internal/product"
)

func makeAppWithCategoryHandler() *fiber.App {
	repo := product.NewInMemoryRepository([]product.Product{
		{ID: 1, Name: "Reserve", Price: decimal.RequireFromString("18.50"), Category: "whole-bean", Active: true},
		{ID: 2, Name: "Casa", Price: decimal.RequireFromString("15"), Category: "whole-bean", Active: true},
		{ID: 3, Name: "Pods", Price: decimal.RequireFromString("9"), Category: "capsules", Active: true},
		{ID: 4, Name: "Retired", Price: decimal.RequireFromString("9"), Category: "ground", Active: false},
		{ID: 5, Name: "Gift box", Price: decimal.RequireFromString("40"), Category: "gifts", Active: true},
	})
	app := fiber.New()
	NewHandler(NewService(product.NewService(repo))).RegisterPublicRoutes(app)
	return app
}

func getCategories(t *testing.T, app *fiber.App, url string) []CategoryItem {
	t.Helper()
	res, err := app.Test(httptest.NewRequest("GET", url, nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var items []CategoryItem
	if err := json.NewDecoder(res.Body).Decode(&items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return items
}

func TestCategories_CountsActiveProducts(t *testing.T) {
	app := makeAppWithCategoryHandler()

	items := getCategories(t, app, "/api/v1/categories")
	want := []CategoryItem{{"whole-bean", 2}, {"capsules", 1}, {"gifts", 1}}
	if len(items) != len(want) {
		t.Fatalf("expected %v, got %v", want, items)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Fatalf("item %d: expected %v, got %v", i, want[i], items[i])
		}
	}
}

func TestCategories_IncludeEmpty(t *testing.T) {
	app := makeAppWithCategoryHandler()

	items := getCategories(t, app, "/api/v1/categories?all=true")
	if len(items) != len(product.Categories)+1 {
		t.Fatalf("expected every known category plus gifts, got %v", items)
	}
	if items[1].Slug != "ground" || items[1].ProductCount != 0 {
		t.Fatalf("inactive products must not be counted, got %v", items[1])
	}
}
