package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wichananm65/coffee-shop-backend/internal/storage"
)

// StorageKey is the client-storage key holding a serialized cart.
const StorageKey = "coffee-cart"

var ErrCorrupt = errors.New("stored cart is not valid JSON")

// Repository persists the item list of an owner.
type Repository interface {
	// Load returns the stored items; a missing cart is an empty slice.
	Load(ctx context.Context, owner string) ([]Item, error)
	Save(ctx context.Context, owner string, items []Item) error
}

// StorageRepository keeps carts in a storage.KV under StorageKey.
type StorageRepository struct {
	kv storage.KV
}

var _ Repository = (*StorageRepository)(nil)

func NewStorageRepository(kv storage.KV) *StorageRepository {
	return &StorageRepository{kv: kv}
}

func (r *StorageRepository) Load(ctx context.Context, owner string) ([]Item, error) {
	raw, ok, err := r.kv.Get(ctx, owner, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("read cart of %s: %w", owner, err)
	}
	if !ok || raw == "" {
		return []Item{}, nil
	}
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

func (r *StorageRepository) Save(ctx context.Context, owner string, items []Item) error {
	if items == nil {
		items = []Item{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	if err := r.kv.Set(ctx, owner, StorageKey, string(b)); err != nil {
		return fmt.Errorf("write cart of %s: %w", owner, err)
	}
	return nil
}
