package payment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulated_Approves(t *testing.T) {
	gw := NewSimulated(10 * time.Millisecond)
	res, err := gw.Charge(context.Background(), Request{OrderID: 1, Amount: decimal.RequireFromString("27.50"), Currency: "USD"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, SimulatedProvider, res.Provider)
	assert.True(t, strings.HasPrefix(res.TransactionID, "sim_"))

	again, _ := gw.Charge(context.Background(), Request{OrderID: 2})
	assert.NotEqual(t, res.TransactionID, again.TransactionID)
}

func TestSimulated_HonoursCancellation(t *testing.T) {
	gw := NewSimulated(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := gw.Charge(ctx, Request{OrderID: 1})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
