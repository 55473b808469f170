package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wichananm65/coffee-shop-backend/internal/cart"
	"github.com/wichananm65/coffee-shop-backend/internal/events"
	"github.com/wichananm65/coffee-shop-backend/internal/notification"
	"github.com/wichananm65/coffee-shop-backend/internal/order"
	"github.com/wichananm65/coffee-shop-backend/internal/payment"
	"github.com/wichananm65/coffee-shop-backend/internal/session"
)

const (
	SuccessMessage  = "Your order has been placed. Thank you!"
	RedirectTo      = "/account"
	RedirectAfterMs = 3000

	// DefaultPublishTimeout caps how long a paid order waits on the event broker.
	DefaultPublishTimeout = 2 * time.Second
)

var ErrDeclined = errors.New("payment declined")

// Inventory decrements shared stock, flooring at zero.
type Inventory interface {
	DecrementStock(ctx context.Context, productID, qty int) (int, error)
}

// Options wires the checkout dependencies. A zero PublishTimeout means
// DefaultPublishTimeout.
type Options struct {
	Orders         order.Repository
	Inventory      Inventory
	Payments       payment.Gateway
	Notifier       notification.Notifier
	Events         events.Publisher
	Currency       string
	OperatorEmail  string
	PublishTimeout time.Duration
	Log            *zap.Logger
}

type Service struct {
	orders         order.Repository
	inventory      Inventory
	payments       payment.Gateway
	notifier       notification.Notifier
	events         events.Publisher
	currency       string
	operatorEmail  string
	publishTimeout time.Duration
	log            *zap.Logger
}

func NewService(opts Options) *Service {
	s := &Service{
		orders:         opts.Orders,
		inventory:      opts.Inventory,
		payments:       opts.Payments,
		notifier:       opts.Notifier,
		events:         opts.Events,
		currency:       opts.Currency,
		operatorEmail:  opts.OperatorEmail,
		publishTimeout: opts.PublishTimeout,
		log:            opts.Log,
	}
	if s.currency == "" {
		s.currency = "USD"
	}
	if s.events == nil {
		s.events = events.Noop{}
	}
	if s.publishTimeout <= 0 {
		s.publishTimeout = DefaultPublishTimeout
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

type Request struct {
	Form    Form
	Items   []cart.Item
	Session *session.Session
}

type Result struct {
	Order           order.Order `json:"order"`
	Quote           Quote       `json:"quote"`
	Message         string      `json:"message"`
	RedirectTo      string      `json:"redirectTo"`
	RedirectAfterMs int         `json:"redirectAfterMs"`
}

// OrderPaid is the payload of the order.paid event.
type OrderPaid struct {
	OrderID   int             `json:"orderId"`
	UserID    *int            `json:"userId,omitempty"`
	Total     decimal.Decimal `json:"total"`
	Currency  string          `json:"currency"`
	PaymentID string          `json:"paymentId"`
	Items     []order.Item    `json:"items"`
}

func (s *Service) Quote(items []cart.Item, city string, sess *session.Session) Quote {
	return ComputeQuote(items, city, sess.IsMember())
}

func validationError(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Step: StepValidate, Fields: fields, Err: errors.New("invalid checkout request")}
}

// PlaceOrder runs every checkout step in order. Any failure from order
// creation through marking the order paid aborts the rest and returns an
// *Error; nothing already written is undone. Emails and the order event are
// best effort.
func (s *Service) PlaceOrder(ctx context.Context, req Request) (Result, error) {
	fields := req.Form.validate()
	if len(req.Items) == 0 {
		fields["items"] = "cart is empty"
	}
	lines := make([]order.Item, 0, len(req.Items))
	for _, it := range req.Items {
		pid, err := it.ProductID()
		if err != nil {
			fields["items"] = fmt.Sprintf("cart item %q has no product id", it.ID)
			break
		}
		lines = append(lines, order.Item{ProductID: pid, Quantity: it.Quantity, PriceAtTime: it.UnitPrice})
	}
	if len(fields) > 0 {
		return Result{}, validationError(fields)
	}

	// 1. price
	quote := ComputeQuote(req.Items, req.Form.City, req.Session.IsMember())

	// 2. pending order
	pending := order.Order{
		TotalAmount: quote.Total,
		Currency:    s.currency,
		Status:      order.StatusPending,
		ShippingAddress: order.ShippingAddress{
			FullName:   strings.TrimSpace(req.Form.FullName),
			Address:    strings.TrimSpace(req.Form.Address),
			City:       strings.TrimSpace(req.Form.City),
			Department: strings.TrimSpace(req.Form.Department),
			Phone:      strings.TrimSpace(req.Form.Phone),
		},
		Metadata: order.Metadata{
			Notes:        req.Form.Notes,
			Email:        strings.TrimSpace(req.Form.Email),
			Subtotal:     quote.Subtotal,
			Discount:     quote.Discount,
			ShippingCost: quote.ShippingCost,
			IsMember:     quote.IsMember,
		},
	}
	if req.Session.Authenticated() {
		uid := req.Session.UserID
		pending.UserID = &uid
	}
	created, err := s.orders.Create(ctx, pending)
	if err != nil {
		return Result{}, &Error{Kind: KindPersistence, Step: StepCreateOrder, Err: err}
	}

	// 3. order lines
	if err := s.orders.InsertItems(ctx, created.ID, lines); err != nil {
		return Result{}, &Error{Kind: KindPersistence, Step: StepInsertItems, OrderID: created.ID, Err: err}
	}

	// 4. stock
	for _, l := range lines {
		if _, err := s.inventory.DecrementStock(ctx, l.ProductID, l.Quantity); err != nil {
			return Result{}, &Error{Kind: KindInventory, Step: StepDecrementStock, OrderID: created.ID,
				Err: fmt.Errorf("product %d: %w", l.ProductID, err)}
		}
	}

	// 5. payment
	charge, err := s.payments.Charge(ctx, payment.Request{
		OrderID:       created.ID,
		Amount:        quote.Total,
		Currency:      s.currency,
		CustomerName:  pending.ShippingAddress.FullName,
		CustomerEmail: pending.Metadata.Email,
	})
	if err == nil && !charge.Success {
		err = ErrDeclined
		if charge.Message != "" {
			err = fmt.Errorf("%w: %s", ErrDeclined, charge.Message)
		}
	}
	if err != nil {
		return Result{}, &Error{Kind: KindPayment, Step: StepCharge, OrderID: created.ID, Err: err}
	}

	// 6. paid
	paid, err := s.orders.MarkPaid(ctx, created.ID, charge.TransactionID, charge.Provider)
	if err != nil {
		return Result{}, &Error{Kind: KindPersistence, Step: StepMarkPaid, OrderID: created.ID, Err: err}
	}

	s.publishPaid(ctx, paid)

	// 7. emails
	s.sendEmails(ctx, paid, req.Items, quote)

	return Result{
		Order:           paid,
		Quote:           quote,
		Message:         SuccessMessage,
		RedirectTo:      RedirectTo,
		RedirectAfterMs: RedirectAfterMs,
	}, nil
}

func (s *Service) publishPaid(ctx context.Context, o order.Order) {
	var paymentID string
	if o.PaymentID != nil {
		paymentID = *o.PaymentID
	}
	evt := events.NewEnvelope(events.TypeOrderPaid, OrderPaid{
		OrderID:   o.ID,
		UserID:    o.UserID,
		Total:     o.TotalAmount,
		Currency:  o.Currency,
		PaymentID: paymentID,
		Items:     o.Items,
	})
	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	if err := s.events.Publish(ctx, events.TopicOrders, fmt.Sprint(o.ID), evt); err != nil {
		s.log.Warn("order event not published", zap.Int("order_id", o.ID), zap.Error(err))
	}
}

func (s *Service) sendEmails(ctx context.Context, o order.Order, items []cart.Item, q Quote) {
	if s.notifier == nil {
		return
	}
	summary := notification.OrderSummary{
		OrderID:      o.ID,
		CustomerName: o.ShippingAddress.FullName,
		Email:        o.Metadata.Email,
		Phone:        o.ShippingAddress.Phone,
		Address:      o.ShippingAddress.Address,
		City:         o.ShippingAddress.City,
		Department:   o.ShippingAddress.Department,
		Notes:        o.Metadata.Notes,
		Subtotal:     q.Subtotal.StringFixed(2),
		Discount:     q.Discount.StringFixed(2),
		ShippingCost: q.ShippingCost.StringFixed(2),
		Total:        q.Total.StringFixed(2),
		Currency:     o.Currency,
		IsMember:     q.IsMember,
	}
	if o.PaymentID != nil {
		summary.PaymentID = *o.PaymentID
	}
	for _, it := range items {
		summary.Lines = append(summary.Lines, notification.Line{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.StringFixed(2),
			LineTotal: it.LineTotal().StringFixed(2),
		})
	}

	var emails []notification.Email
	if s.operatorEmail != "" {
		if e, err := notification.OperatorNotice(s.operatorEmail, summary); err == nil {
			emails = append(emails, e)
		} else {
			s.log.Warn("operator email not rendered", zap.Int("order_id", o.ID), zap.Error(err))
		}
	}
	if e, err := notification.CustomerConfirmation(summary); err == nil {
		emails = append(emails, e)
	} else {
		s.log.Warn("customer email not rendered", zap.Int("order_id", o.ID), zap.Error(err))
	}

	for _, e := range emails {
		if _, err := s.notifier.Send(ctx, e); err != nil {
			s.log.Warn("order email failed",
				zap.Int("order_id", o.ID),
				zap.Strings("to", e.To),
				zap.Error(err),
			)
		}
	}
}
