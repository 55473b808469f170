// Package checkout turns a cart into a paid order. The steps run in a fixed
// order without a surrounding transaction: a failure stops the sequence and
// leaves earlier writes in place.
package checkout

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wichananm65/coffee-shop-backend/internal/cart"
	"github.com/wichananm65/coffee-shop-backend/internal/shipping"
)

// GenericMessage is the only failure text shown to shoppers.
const GenericMessage = "There was an error processing your order, please try again"

// MemberDiscountRate applies to every signed-in shopper.
var MemberDiscountRate = decimal.RequireFromString("0.10")

type Kind string

const (
	KindValidation  Kind = "validation"
	KindPersistence Kind = "persistence"
	KindInventory   Kind = "inventory"
	KindPayment     Kind = "payment"
)

// Steps of PlaceOrder, in execution order.
const (
	StepValidate       = "validate"
	StepCreateOrder    = "create_order"
	StepInsertItems    = "insert_items"
	StepDecrementStock = "decrement_stock"
	StepCharge         = "charge"
	StepMarkPaid       = "mark_paid"
)

// Error reports which step failed. OrderID is set once the order row exists.
type Error struct {
	Kind    Kind
	Step    string
	OrderID int
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.OrderID > 0 {
		return fmt.Sprintf("checkout %s failed at %s (order %d): %v", e.Kind, e.Step, e.OrderID, e.Err)
	}
	return fmt.Sprintf("checkout %s failed at %s: %v", e.Kind, e.Step, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Form is what the shopper fills in at checkout. Notes is optional.
type Form struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Department string `json:"department"`
	Notes      string `json:"notes"`
}

func (f Form) validate() map[string]string {
	errs := map[string]string{}
	required := []struct{ name, value string }{
		{"fullName", f.FullName},
		{"email", f.Email},
		{"phone", f.Phone},
		{"address", f.Address},
		{"city", f.City},
		{"department", f.Department},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs[r.name] = r.name + " is required"
		}
	}
	if _, ok := errs["email"]; !ok {
		if addr, err := mail.ParseAddress(f.Email); err != nil || addr.Address != strings.TrimSpace(f.Email) {
			errs["email"] = "email is invalid"
		}
	}
	return errs
}

// Quote is the price breakdown shown before and stored with an order.
type Quote struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	ShippingCost  decimal.Decimal `json:"shippingCost"`
	Total         decimal.Decimal `json:"total"`
	IsMember      bool            `json:"isMember"`
	EstimatedDays string          `json:"estimatedDays"`
}

// ComputeQuote prices items for delivery to city. Each component is rounded
// to cents and the total is the sum of the rounded components, so
// Subtotal - Discount + ShippingCost always equals Total.
func ComputeQuote(items []cart.Item, city string, isMember bool) Quote {
	c := cart.Cart{Items: items}
	subtotal := c.Total().Round(2)
	discount := decimal.Zero
	if isMember {
		discount = subtotal.Mul(MemberDiscountRate).Round(2)
	}
	shippingCost := shipping.CalculateShipping(city).Round(2)

	return Quote{
		Subtotal:      subtotal,
		Discount:      discount,
		ShippingCost:  shippingCost,
		Total:         subtotal.Sub(discount).Add(shippingCost),
		IsMember:      isMember,
		EstimatedDays: shipping.EstimatedDays(city),
	}
}
