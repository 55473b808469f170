package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

// lockStripes bounds the number of mutexes regardless of how many owners
// (including one-off anonymous carts) the process has seen.
const lockStripes = 64

// Service applies cart operations and persists the result after every
// mutation. Storage failures are logged and never returned: callers always get
// the in-memory cart.
type Service struct {
	repo  Repository
	log   *zap.Logger
	locks [lockStripes]sync.Mutex
}

func NewService(repo Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, log: log}
}

func stripe(owner string) int {
	return int(xxhash.Sum64String(owner) % lockStripes)
}

// lock serializes mutations of one owner. Owners sharing a stripe also wait
// for each other; no caller holds two stripes at once.
func (s *Service) lock(owner string) func() {
	mu := &s.locks[stripe(owner)]
	mu.Lock()
	return mu.Unlock
}

func (s *Service) load(ctx context.Context, owner string) *Cart {
	items, err := s.repo.Load(ctx, owner)
	if err != nil {
		if errors.Is(err, ErrCorrupt) {
			s.log.Debug("discarding unreadable cart", zap.String("owner", owner), zap.Error(err))
		} else {
			s.log.Warn("cart load failed", zap.String("owner", owner), zap.Error(err))
		}
		return &Cart{Items: []Item{}}
	}
	return &Cart{Items: items}
}

func (s *Service) save(ctx context.Context, owner string, c *Cart) {
	if err := s.repo.Save(ctx, owner, c.Items); err != nil {
		s.log.Warn("cart save failed", zap.String("owner", owner), zap.Error(err))
	}
}

func (s *Service) mutate(ctx context.Context, owner string, fn func(*Cart)) *Cart {
	unlock := s.lock(owner)
	defer unlock()
	c := s.load(ctx, owner)
	fn(c)
	s.save(ctx, owner, c)
	return c
}

func (s *Service) Get(ctx context.Context, owner string) *Cart {
	return s.load(ctx, owner)
}

func (s *Service) Add(ctx context.Context, owner string, item Item) *Cart {
	return s.mutate(ctx, owner, func(c *Cart) { c.Add(item) })
}

func (s *Service) Remove(ctx context.Context, owner, id string) *Cart {
	return s.mutate(ctx, owner, func(c *Cart) { c.Remove(id) })
}

func (s *Service) UpdateQty(ctx context.Context, owner, id string, n int) *Cart {
	return s.mutate(ctx, owner, func(c *Cart) { c.UpdateQty(id, n) })
}

func (s *Service) Clear(ctx context.Context, owner string) *Cart {
	return s.mutate(ctx, owner, func(c *Cart) { c.Clear() })
}

// Merge moves every item of from into to and empties from. Used when an
// anonymous visitor signs in.
func (s *Service) Merge(ctx context.Context, from, to string) *Cart {
	if from == to {
		return s.Get(ctx, to)
	}
	src := s.Get(ctx, from)
	if len(src.Items) == 0 {
		return s.Get(ctx, to)
	}
	merged := s.mutate(ctx, to, func(c *Cart) {
		for _, it := range src.Items {
			c.Add(it)
		}
		c.DrawerOpen = false
	})
	s.Clear(ctx, from)
	return merged
}
