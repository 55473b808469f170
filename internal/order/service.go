package order

import "context"

// Service provides the read side of orders for shoppers and the admin
// console. Orders are written by checkout.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

func (s *Service) ListForUser(ctx context.Context, userID int) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// GetForUser returns the order only when it belongs to userID; other orders
// are reported as not found.
func (s *Service) GetForUser(ctx context.Context, userID, id int) (Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if o.UserID == nil || *o.UserID != userID {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (s *Service) ListAll(ctx context.Context) ([]Order, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) UpdateStatus(ctx context.Context, id int, status string) (Order, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return Order{}, err
	}
	return s.repo.UpdateStatus(ctx, id, st)
}
