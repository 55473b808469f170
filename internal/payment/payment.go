// Package payment is the boundary to the payment provider. Only a simulated
// gateway exists for now.
package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request describes one charge.
type Request struct {
	OrderID       int             `json:"orderId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
}

// Result is the provider's answer. Success=false is a declined payment.
type Result struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId,omitempty"`
	Provider      string `json:"provider"`
	Message       string `json:"message,omitempty"`
}

type Gateway interface {
	Charge(ctx context.Context, req Request) (Result, error)
}

const SimulatedProvider = "simulated"

// Simulated approves every charge after Delay.
type Simulated struct {
	Delay time.Duration
}

var _ Gateway = (*Simulated)(nil)

func NewSimulated(delay time.Duration) *Simulated {
	return &Simulated{Delay: delay}
}

func (s *Simulated) Charge(ctx context.Context, req Request) (Result, error) {
	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
	return Result{
		Success:       true,
		TransactionID: "sim_" + uuid.NewString(),
		Provider:      SimulatedProvider,
	}, nil
}
