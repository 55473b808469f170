package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

var _ Repository = (*PostgresRepository)(nil)

const (
	orderColumns = `id, user_id, total_amount, currency, shipping_address, status, payment_id, payment_method, metadata, created_at, updated_at`

	insertOrderQuery = `
		INSERT INTO orders (user_id, total_amount, currency, shipping_address, status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + orderColumns
	// one statement for all lines of an order
	insertItemsQuery = `
		INSERT INTO order_items (order_id, product_id, quantity, price_at_time)
		SELECT $1, unnest($2::int[]), unnest($3::int[]), unnest($4::numeric[])
	`
	markPaidQuery = `
		UPDATE orders
		SET status = 'paid', payment_id = $1, payment_method = $2, updated_at = now()
		WHERE id = $3
		RETURNING ` + orderColumns
	updateStatusQuery = `
		UPDATE orders
		SET status = $1, updated_at = now()
		WHERE id = $2
		RETURNING ` + orderColumns
	getOrderByIDQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1
	`
	listOrdersByUserQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	listOrdersQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		ORDER BY created_at DESC, id DESC
	`
	listItemsQuery = `
		SELECT id, order_id, product_id, quantity, price_at_time
		FROM order_items
		WHERE order_id = ANY($1::int[])
		ORDER BY order_id, id
	`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanOrder(row rowScanner) (Order, error) {
	var (
		o             Order
		userID        sql.NullInt64
		paymentID     sql.NullString
		paymentMethod sql.NullString
		addrJSON      []byte
		metaJSON      []byte
		status        string
	)
	if err := row.Scan(&o.ID, &userID, &o.TotalAmount, &o.Currency, &addrJSON, &status,
		&paymentID, &paymentMethod, &metaJSON, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return Order{}, err
	}
	o.Status = Status(status)
	if userID.Valid {
		id := int(userID.Int64)
		o.UserID = &id
	}
	if paymentID.Valid {
		o.PaymentID = &paymentID.String
	}
	if paymentMethod.Valid {
		o.PaymentMethod = &paymentMethod.String
	}
	if len(addrJSON) > 0 {
		if err := json.Unmarshal(addrJSON, &o.ShippingAddress); err != nil {
			return Order{}, fmt.Errorf("decode shipping address of order %d: %w", o.ID, err)
		}
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &o.Metadata); err != nil {
			return Order{}, fmt.Errorf("decode metadata of order %d: %w", o.ID, err)
		}
	}
	return o, nil
}

func (r *PostgresRepository) Create(ctx context.Context, o Order) (Order, error) {
	addr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return Order{}, err
	}
	meta, err := json.Marshal(o.Metadata)
	if err != nil {
		return Order{}, err
	}
	var userID sql.NullInt64
	if o.UserID != nil {
		userID = sql.NullInt64{Int64: int64(*o.UserID), Valid: true}
	}
	status := o.Status
	if status == "" {
		status = StatusPending
	}

	created, err := scanOrder(r.db.QueryRowContext(ctx, insertOrderQuery,
		userID, o.TotalAmount, o.Currency, string(addr), string(status), string(meta)))
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) InsertItems(ctx context.Context, orderID int, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	productIDs := make([]int64, len(items))
	quantities := make([]int64, len(items))
	prices := make([]string, len(items))
	for i, it := range items {
		productIDs[i] = int64(it.ProductID)
		quantities[i] = int64(it.Quantity)
		prices[i] = it.PriceAtTime.String()
	}
	if _, err := r.db.ExecContext(ctx, insertItemsQuery,
		orderID, pq.Array(productIDs), pq.Array(quantities), pq.Array(prices)); err != nil {
		return fmt.Errorf("insert items of order %d: %w", orderID, err)
	}
	return nil
}

func (r *PostgresRepository) one(ctx context.Context, query string, args ...any) (Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	if err := r.attachItems(ctx, []*Order{&o}); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *PostgresRepository) MarkPaid(ctx context.Context, orderID int, paymentID, method string) (Order, error) {
	return r.one(ctx, markPaidQuery, paymentID, method, orderID)
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int, status Status) (Order, error) {
	return r.one(ctx, updateStatusQuery, string(status), id)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Order, error) {
	return r.one(ctx, getOrderByIDQuery, id)
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int) ([]Order, error) {
	return r.list(ctx, listOrdersByUserQuery, userID)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]Order, error) {
	return r.list(ctx, listOrdersQuery)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ptrs := make([]*Order, len(orders))
	for i := range orders {
		ptrs[i] = &orders[i]
	}
	if err := r.attachItems(ctx, ptrs); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads the lines of all given orders with a single query.
func (r *PostgresRepository) attachItems(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	byID := make(map[int]*Order, len(orders))
	for i, o := range orders {
		ids[i] = int64(o.ID)
		byID[o.ID] = o
	}

	rows, err := r.db.QueryContext(ctx, listItemsQuery, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.PriceAtTime); err != nil {
			return err
		}
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}
