package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wichananm65/coffee-shop-backend/internal/storage"
)

type failingKV struct{}

func (failingKV) Get(context.Context, string, string) (string, bool, error) {
	return "", false, errors.New("quota exceeded")
}
func (failingKV) Set(context.Context, string, string, string) error {
	return errors.New("quota exceeded")
}
func (failingKV) SetTTL(context.Context, string, string, string, time.Duration) error {
	return errors.New("quota exceeded")
}
func (failingKV) Delete(context.Context, string, string) error { return nil }

func TestStorageRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewStorageRepository(storage.NewMemory())

	items := []Item{
		{ID: "1", Name: "Casa Blend", UnitPrice: price("15"), Quantity: 2, ImageRef: "/a.jpg"},
		{ID: "2:ground", Name: "Huila", Subtitle: "250 g", UnitPrice: price("24.5"), Quantity: 1},
	}
	require.NoError(t, repo.Save(ctx, "user:1", items))

	got, err := repo.Load(ctx, "user:1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range items {
		assert.Equal(t, items[i].ID, got[i].ID)
		assert.Equal(t, items[i].Quantity, got[i].Quantity)
		assert.True(t, items[i].UnitPrice.Equal(got[i].UnitPrice))
	}

	empty, err := repo.Load(ctx, "user:2")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStorageRepository_CorruptValue(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(ctx, "anon:x", StorageKey, "{not json"))

	_, err := NewStorageRepository(kv).Load(ctx, "anon:x")
	assert.ErrorIs(t, err, ErrCorrupt)

	svc := NewService(NewStorageRepository(kv), zap.NewNop())
	assert.Empty(t, svc.Get(ctx, "anon:x").Items)
}

func TestService_PersistsEveryMutation(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	svc := NewService(NewStorageRepository(kv), nil)

	svc.Add(ctx, "user:1", Item{ID: "1", UnitPrice: price("10"), Quantity: 2})
	svc.Add(ctx, "user:1", Item{ID: "2", UnitPrice: price("5"), Quantity: 1})
	svc.UpdateQty(ctx, "user:1", "1", 3)

	raw, ok, _ := kv.Get(ctx, "user:1", StorageKey)
	require.True(t, ok)
	assert.Contains(t, raw, `"quantity":3`)

	reloaded := svc.Get(ctx, "user:1")
	assert.True(t, reloaded.Total().Equal(price("35")))
	assert.False(t, reloaded.DrawerOpen)

	svc.Clear(ctx, "user:1")
	raw, _, _ = kv.Get(ctx, "user:1", StorageKey)
	assert.Equal(t, "[]", raw)
}

func TestService_StorageFailuresAreSwallowed(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	svc := NewService(NewStorageRepository(failingKV{}), zap.New(core))

	c := svc.Add(context.Background(), "user:1", Item{ID: "1", UnitPrice: price("10"), Quantity: 1})
	require.Len(t, c.Items, 1)
	assert.True(t, c.DrawerOpen)
	assert.Equal(t, 2, logs.FilterMessage("cart load failed").Len()+logs.FilterMessage("cart save failed").Len())
}

func TestService_Merge(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewStorageRepository(storage.NewMemory()), nil)

	svc.Add(ctx, "anon:abc", Item{ID: "1", UnitPrice: price("10"), Quantity: 1})
	svc.Add(ctx, "anon:abc", Item{ID: "3", UnitPrice: price("4"), Quantity: 2})
	svc.Add(ctx, "user:9", Item{ID: "1", UnitPrice: price("10"), Quantity: 2})

	merged := svc.Merge(ctx, "anon:abc", "user:9")
	require.Len(t, merged.Items, 2)
	assert.Equal(t, 3, merged.Items[0].Quantity)
	assert.Empty(t, svc.Get(ctx, "anon:abc").Items)
	assert.True(t, svc.Get(ctx, "user:9").Total().Equal(price("38")))
}

func TestService_LocksAreBounded(t *testing.T) {
	for i := 0; i < 10000; i++ {
		n := stripe(fmt.Sprintf("anon:%d", i))
		require.GreaterOrEqual(t, n, 0)
		require.Less(t, n, lockStripes)
	}
	assert.Equal(t, stripe("user:7"), stripe("user:7"))
}

func TestService_ConcurrentAddsKeepEveryUnit(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewStorageRepository(storage.NewMemory()), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			svc.Add(ctx, "user:1", Item{ID: "1", UnitPrice: price("10"), Quantity: 1})
			svc.Add(ctx, fmt.Sprintf("anon:%d", i), Item{ID: "2", UnitPrice: price("5"), Quantity: 1})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, svc.Get(ctx, "user:1").Count())
	assert.Equal(t, 1, svc.Get(ctx, "anon:7").Count())
}
