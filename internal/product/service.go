package product

import (
	"context"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the storefront catalogue (active products only).
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx, true)
}

// ListAll includes inactive products, for the admin console.
func (s *Service) ListAll(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx, false)
}

func (s *Service) GetByID(ctx context.Context, id int) (Product, error) {
	if id <= 0 {
		return Product{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	return s.repo.Create(ctx, p)
}

func (s *Service) Update(ctx context.Context, id int, p Product) (Product, error) {
	return s.repo.Update(ctx, id, p)
}

func (s *Service) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) DecrementStock(ctx context.Context, id int, qty int) (int, error) {
	return s.repo.DecrementStock(ctx, id, qty)
}

// SeedIfEmpty inserts the given products when the catalogue has none yet and
// reports how many rows were created.
func (s *Service) SeedIfEmpty(ctx context.Context, products []Product) (int, error) {
	existing, err := s.repo.List(ctx, false)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	inserted := 0
	for _, p := range products {
		if _, err := s.repo.Create(ctx, p); err != nil {
			return inserted, fmt.Errorf("seed %q: %w", p.Name, err)
		}
		inserted++
	}
	return inserted, nil
}
