package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var (
	ErrNotFound      = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid order status")
)

// ParseStatus accepts only the known statuses.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return st, nil
	}
	return "", ErrInvalidStatus
}

type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Department string `json:"department"`
	Phone      string `json:"phone"`
}

// Metadata keeps the checkout breakdown next to the order.
type Metadata struct {
	Notes        string          `json:"notes,omitempty"`
	Email        string          `json:"email"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Discount     decimal.Decimal `json:"discount"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	IsMember     bool            `json:"isMember"`
}

// Item is one purchased line, priced at checkout time.
type Item struct {
	ID          int             `json:"id"`
	OrderID     int             `json:"orderId"`
	ProductID   int             `json:"productId"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"priceAtTime"`
}

// Order represents a purchase. UserID is nil for guest checkouts.
type Order struct {
	ID              int             `json:"id"`
	UserID          *int            `json:"userId,omitempty"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Currency        string          `json:"currency"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Status          Status          `json:"status"`
	PaymentID       *string         `json:"paymentId,omitempty"`
	PaymentMethod   *string         `json:"paymentMethod,omitempty"`
	Metadata        Metadata        `json:"metadata"`
	Items           []Item          `json:"items,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
