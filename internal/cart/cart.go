package cart

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidItemID = errors.New("cart item id does not start with a product id")

// Item is one line of a cart. ID is either a product id or a
// "product:variant" composite and is unique within a cart.
type Item struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Subtitle  string          `json:"subtitle"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ImageRef  string          `json:"image"`
}

// ProductID returns the catalogue id encoded in the item id.
func (i Item) ProductID() (int, error) {
	prefix, _, _ := strings.Cut(i.ID, ":")
	id, err := strconv.Atoi(prefix)
	if err != nil || id <= 0 {
		return 0, ErrInvalidItemID
	}
	return id, nil
}

// LineTotal is UnitPrice × Quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart holds the items of one owner. DrawerOpen is view state and is not
// persisted.
type Cart struct {
	Items      []Item
	DrawerOpen bool
}

// Add merges item into the cart by id and opens the drawer.
func (c *Cart) Add(item Item) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	c.DrawerOpen = true
	for i := range c.Items {
		if c.Items[i].ID == item.ID {
			c.Items[i].Quantity += item.Quantity
			return
		}
	}
	c.Items = append(c.Items, item)
}

func (c *Cart) Remove(id string) {
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	c.Items = kept
}

// UpdateQty sets the quantity of id. Anything below one removes the item.
func (c *Cart) UpdateQty(id string, n int) {
	if n < 1 {
		c.Remove(id)
		return
	}
	for i := range c.Items {
		if c.Items[i].ID == id {
			c.Items[i].Quantity = n
			return
		}
	}
}

func (c *Cart) Clear() {
	c.Items = nil
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// Count is the number of units in the cart.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}
