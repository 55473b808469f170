package category

import (
	"context"
	"slices"

	"github.com/wichananm65/coffee-shop-backend/internal/product"
)

// Catalog lists the products visible to shoppers.
type Catalog interface {
	List(ctx context.Context) ([]product.Product, error)
}

// Service derives the category filters from the active catalogue.
type Service struct {
	catalog Catalog
}

func NewService(c Catalog) *Service {
	return &Service{catalog: c}
}

// List returns every known category in storefront order, followed by any
// category that only appears on products. Empty categories are kept when
// includeEmpty is set.
func (s *Service) List(ctx context.Context, includeEmpty bool) ([]CategoryItem, error) {
	products, err := s.catalog.List(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	var extra []string
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if _, seen := counts[p.Category]; !seen && !slices.Contains(product.Categories, p.Category) {
			extra = append(extra, p.Category)
		}
		counts[p.Category]++
	}

	out := make([]CategoryItem, 0, len(product.Categories)+len(extra))
	for _, slug := range slices.Concat(product.Categories, extra) {
		if counts[slug] == 0 && !includeEmpty {
			continue
		}
		out = append(out, CategoryItem{Slug: slug, ProductCount: counts[slug]})
	}
	return out, nil
}

