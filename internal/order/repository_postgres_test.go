package order

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderCols = []string{"id", "user_id", "total_amount", "currency", "shipping_address", "status", "payment_id", "payment_method", "metadata", "created_at", "updated_at"}
var itemCols = []string{"id", "order_id", "product_id", "quantity", "price_at_time"}

func TestPostgresCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now()
	uid := 42
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(sql.NullInt64{Int64: 42, Valid: true}, sqlmock.AnyArg(), "USD", sqlmock.AnyArg(), "pending", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(
			5, 42, "27.50", "USD", []byte(`{"fullName":"Ana","city":"Medellín"}`), "pending", nil, nil,
			[]byte(`{"email":"ana@example.com","subtotal":"25","discount":"2.5","shippingCost":"5","isMember":true}`), now, now))

	o, err := repo.Create(context.Background(), Order{
		UserID:          &uid,
		TotalAmount:     decimal.RequireFromString("27.50"),
		Currency:        "USD",
		ShippingAddress: ShippingAddress{FullName: "Ana", City: "Medellín"},
		Metadata:        Metadata{Email: "ana@example.com", IsMember: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, o.ID)
	assert.Equal(t, StatusPending, o.Status)
	assert.Nil(t, o.PaymentID)
	assert.Equal(t, "Medellín", o.ShippingAddress.City)
	assert.True(t, o.Metadata.Discount.Equal(decimal.RequireFromString("2.5")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreate_GuestHasNullUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(sql.NullInt64{}, sqlmock.AnyArg(), "USD", sqlmock.AnyArg(), "pending", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(6, nil, "10", "USD", []byte(`{}`), "pending", nil, nil, []byte(`{}`), now, now))

	o, err := NewPostgresRepository(db).Create(context.Background(), Order{TotalAmount: decimal.NewFromInt(10), Currency: "USD"})
	require.NoError(t, err)
	assert.Nil(t, o.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertItems_SingleStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO order_items .* unnest").
		WithArgs(5, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err = NewPostgresRepository(db).InsertItems(context.Background(), 5, []Item{
		{ProductID: 1, Quantity: 2, PriceAtTime: decimal.NewFromInt(10)},
		{ProductID: 2, Quantity: 1, PriceAtTime: decimal.NewFromInt(5)},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	// nothing to insert, no statement
	require.NoError(t, NewPostgresRepository(db).InsertItems(context.Background(), 5, nil))
}

func TestPostgresMarkPaid_LoadsItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("UPDATE orders\\s+SET status = 'paid'").WithArgs("sim_abc", "simulated", 5).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(5, 42, "30", "USD", []byte(`{}`), "paid", "sim_abc", "simulated", []byte(`{}`), now, now))
	mock.ExpectQuery("FROM order_items").WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(1, 5, 1, 2, "10").AddRow(2, 5, 2, 1, "5"))

	o, err := NewPostgresRepository(db).MarkPaid(context.Background(), 5, "sim_abc", "simulated")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, o.Status)
	require.NotNil(t, o.PaymentID)
	assert.Equal(t, "sim_abc", *o.PaymentID)
	assert.Len(t, o.Items, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM orders\\s+WHERE id = \\$1").WithArgs(9).WillReturnError(sql.ErrNoRows)

	_, err = NewPostgresRepository(db).GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("FROM orders\\s+WHERE user_id = \\$1").WithArgs(42).
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow(8, 42, "12", "USD", []byte(`{}`), "paid", "sim_2", "simulated", []byte(`{}`), now, now).
			AddRow(5, 42, "30", "USD", []byte(`{}`), "pending", nil, nil, []byte(`{}`), now, now))
	mock.ExpectQuery("FROM order_items").WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(1, 5, 1, 2, "10").AddRow(3, 8, 4, 1, "12"))

	orders, err := NewPostgresRepository(db).ListByUser(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, 4, orders[0].Items[0].ProductID)
	assert.Equal(t, 1, orders[1].Items[0].ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
