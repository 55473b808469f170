package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type PostgresRepository struct {
	db *sql.DB
}

var _ Repository = (*PostgresRepository)(nil)

const (
	productColumns = `id, name, subtitle, description, price, stock, image_ref, category, active, created_at, updated_at`

	listProductsQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE ($1 = FALSE OR active)
		ORDER BY id
	`
	getProductByIDQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
	`
	insertProductQuery = `
		INSERT INTO products (name, subtitle, description, price, stock, image_ref, category, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING ` + productColumns
	updateProductQuery = `
		UPDATE products
		SET name = $1,
			subtitle = $2,
			description = $3,
			price = $4,
			stock = $5,
			image_ref = $6,
			category = $7,
			active = $8,
			updated_at = now()
		WHERE id = $9
		RETURNING ` + productColumns
	deleteProductQuery = `DELETE FROM products WHERE id = $1`

	// a single conditional statement so two checkouts of the same product
	// cannot both read the same stock value
	decrementStockQuery = `
		UPDATE products
		SET stock = GREATEST(stock - $1, 0), updated_at = now()
		WHERE id = $2
		RETURNING stock
	`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanProduct(row rowScanner) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Subtitle, &p.Description, &p.Price, &p.Stock, &p.ImageRef, &p.Category, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *PostgresRepository) List(ctx context.Context, activeOnly bool) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, listProductsQuery, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, getProductByIDQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p Product) (Product, error) {
	row := r.db.QueryRowContext(ctx, insertProductQuery,
		p.Name, p.Subtitle, p.Description, p.Price, p.Stock, p.ImageRef, p.Category, p.Active)
	created, err := scanProduct(row)
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int, p Product) (Product, error) {
	row := r.db.QueryRowContext(ctx, updateProductQuery,
		p.Name, p.Subtitle, p.Description, p.Price, p.Stock, p.ImageRef, p.Category, p.Active, id)
	updated, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("update product %d: %w", id, err)
	}
	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, deleteProductQuery, id)
	if err != nil {
		return err
	}
	cnt, _ := res.RowsAffected()
	if cnt == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DecrementStock(ctx context.Context, id int, qty int) (int, error) {
	var stock int
	if err := r.db.QueryRowContext(ctx, decrementStockQuery, qty, id).Scan(&stock); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("decrement stock of product %d: %w", id, err)
	}
	return stock, nil
}
