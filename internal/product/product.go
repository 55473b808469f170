package product

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalogue entry. Stock is shared by every shopper and only
// ever decremented through Repository.DecrementStock during checkout.
type Product struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Subtitle    string          `json:"subtitle"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	ImageRef    string          `json:"image"`
	Category    string          `json:"category"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Categories used by the storefront filters.
var Categories = []string{
	"whole-bean",
	"ground",
	"capsules",
	"brewing",
	"merch",
}

// DefaultCatalog is seeded into an empty catalogue on first start.
func DefaultCatalog() []Product {
	return []Product{
		{
			Name:        "Sierra Nevada Reserve",
			Subtitle:    "Washed · 250 g",
			Description: "Panela, orange peel and cacao nibs from farms above Minca.",
			Price:       decimal.RequireFromString("18.50"),
			Stock:       120,
			ImageRef:    "/products/sierra-nevada-reserve.jpg",
			Category:    "whole-bean",
			Active:      true,
		},
		{
			Name:        "Huila Pink Bourbon",
			Subtitle:    "Natural · 250 g",
			Description: "Strawberry, hibiscus and a long sugarcane finish.",
			Price:       decimal.RequireFromString("24.00"),
			Stock:       60,
			ImageRef:    "/products/huila-pink-bourbon.jpg",
			Category:    "whole-bean",
			Active:      true,
		},
		{
			Name:        "Casa Blend",
			Subtitle:    "Medium roast · ground · 500 g",
			Description: "Everyday blend for drip and French press.",
			Price:       decimal.RequireFromString("15.00"),
			Stock:       200,
			ImageRef:    "/products/casa-blend.jpg",
			Category:    "ground",
			Active:      true,
		},
		{
			Name:        "Espresso Capsules",
			Subtitle:    "Box of 10",
			Description: "Compostable capsules, compatible with Nespresso Original machines.",
			Price:       decimal.RequireFromString("7.90"),
			Stock:       300,
			ImageRef:    "/products/espresso-capsules.jpg",
			Category:    "capsules",
			Active:      true,
		},
		{
			Name:        "Ceramic Pour-over Dripper",
			Subtitle:    "Size 02",
			Description: "Hand-glazed in Ráquira.",
			Price:       decimal.RequireFromString("32.00"),
			Stock:       25,
			ImageRef:    "/products/pour-over-dripper.jpg",
			Category:    "brewing",
			Active:      true,
		},
	}
}
