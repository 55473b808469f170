package order

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Repository defines persistence operations for orders.
type Repository interface {
	// Create inserts o and returns it with id and timestamps set.
	Create(ctx context.Context, o Order) (Order, error)
	// InsertItems stores all lines of an order in one statement.
	InsertItems(ctx context.Context, orderID int, items []Item) error
	MarkPaid(ctx context.Context, orderID int, paymentID, method string) (Order, error)
	GetByID(ctx context.Context, id int) (Order, error)
	ListByUser(ctx context.Context, userID int) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id int, status Status) (Order, error)
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu         sync.RWMutex
	orders     []Order
	items      map[int][]Item
	nextID     int
	nextItemID int
}

var _ Repository = (*InMemoryRepository)(nil)

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{items: make(map[int][]Item), nextID: 1, nextItemID: 1}
}

func (r *InMemoryRepository) withItems(o Order) Order {
	o.Items = slices.Clone(r.items[o.ID])
	return o
}

func (r *InMemoryRepository) Create(_ context.Context, o Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o.ID = r.nextID
	r.nextID++
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	o.Items = nil
	r.orders = append(r.orders, o)
	return o, nil
}

func (r *InMemoryRepository) InsertItems(_ context.Context, orderID int, items []Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !slices.ContainsFunc(r.orders, func(o Order) bool { return o.ID == orderID }) {
		return ErrNotFound
	}
	for _, it := range items {
		it.ID = r.nextItemID
		r.nextItemID++
		it.OrderID = orderID
		r.items[orderID] = append(r.items[orderID], it)
	}
	return nil
}

func (r *InMemoryRepository) update(id int, fn func(*Order)) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.orders {
		if r.orders[i].ID == id {
			fn(&r.orders[i])
			r.orders[i].UpdatedAt = time.Now().UTC()
			return r.withItems(r.orders[i]), nil
		}
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) MarkPaid(_ context.Context, orderID int, paymentID, method string) (Order, error) {
	return r.update(orderID, func(o *Order) {
		o.Status = StatusPaid
		o.PaymentID = &paymentID
		o.PaymentMethod = &method
	})
}

func (r *InMemoryRepository) UpdateStatus(_ context.Context, id int, status Status) (Order, error) {
	return r.update(id, func(o *Order) { o.Status = status })
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.orders {
		if o.ID == id {
			return r.withItems(o), nil
		}
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) ListByUser(_ context.Context, userID int) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Order, 0)
	for i := len(r.orders) - 1; i >= 0; i-- {
		o := r.orders[i]
		if o.UserID != nil && *o.UserID == userID {
			out = append(out, r.withItems(o))
		}
	}
	return out, nil
}

func (r *InMemoryRepository) ListAll(_ context.Context) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Order, 0, len(r.orders))
	for i := len(r.orders) - 1; i >= 0; i-- {
		out = append(out, r.withItems(r.orders[i]))
	}
	return out, nil
}
