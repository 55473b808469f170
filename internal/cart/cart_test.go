package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAdd_SumsQuantitiesForSameID(t *testing.T) {
	var c Cart
	c.Add(Item{ID: "1", UnitPrice: price("10"), Quantity: 2})
	c.Add(Item{ID: "1", UnitPrice: price("10"), Quantity: 3})
	c.Add(Item{ID: "1:decaf", UnitPrice: price("11"), Quantity: 1})

	require.Len(t, c.Items, 2)
	assert.Equal(t, 5, c.Items[0].Quantity)
	assert.Equal(t, "1:decaf", c.Items[1].ID)
	assert.True(t, c.DrawerOpen)
}

func TestAdd_QuantityBelowOneCountsAsOne(t *testing.T) {
	var c Cart
	c.Add(Item{ID: "1", Quantity: 0})
	c.Add(Item{ID: "1", Quantity: -4})
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
}

func TestUpdateQty_BelowOneRemoves(t *testing.T) {
	build := func() Cart {
		var c Cart
		c.Add(Item{ID: "1", Quantity: 2})
		c.Add(Item{ID: "2", Quantity: 1})
		return c
	}

	for _, n := range []int{0, -1} {
		updated := build()
		updated.UpdateQty("1", n)
		removed := build()
		removed.Remove("1")
		assert.Equal(t, removed.Items, updated.Items)
	}

	c := build()
	c.UpdateQty("2", 7)
	assert.Equal(t, 7, c.Items[1].Quantity)

	c.UpdateQty("missing", 3)
	assert.Len(t, c.Items, 2)
}

func TestRemove_Idempotent(t *testing.T) {
	var c Cart
	c.Add(Item{ID: "1", Quantity: 1})
	c.Remove("1")
	c.Remove("1")
	assert.Empty(t, c.Items)
}

func TestTotalAndCount(t *testing.T) {
	var c Cart
	assert.True(t, c.Total().IsZero())

	c.Add(Item{ID: "1", UnitPrice: price("10"), Quantity: 2})
	c.Add(Item{ID: "2", UnitPrice: price("5"), Quantity: 1})
	assert.True(t, c.Total().Equal(price("25")), c.Total().String())
	assert.Equal(t, 3, c.Count())

	c.UpdateQty("1", 1)
	assert.True(t, c.Total().Equal(price("15")))

	c.Clear()
	assert.True(t, c.Total().IsZero())
	assert.Zero(t, c.Count())
}

func TestItemProductID(t *testing.T) {
	id, err := Item{ID: "12:whole-bean"}.ProductID()
	require.NoError(t, err)
	assert.Equal(t, 12, id)

	id, err = Item{ID: "4"}.ProductID()
	require.NoError(t, err)
	assert.Equal(t, 4, id)

	_, err = Item{ID: "abc:1"}.ProductID()
	assert.ErrorIs(t, err, ErrInvalidItemID)
}
