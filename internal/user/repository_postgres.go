package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

type PostgresRepository struct {
	db *sql.DB
}

var _ Repository = (*PostgresRepository)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	userColumns = `id, email, password, full_name, phone, created_at, updated_at`

	getUserByIDQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`
	getUserByEmailQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE lower(email) = lower($1)
	`
	insertUserQuery = `
		INSERT INTO users (email, password, full_name, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns
	insertProfileQuery = `INSERT INTO profiles (user_id, role) VALUES ($1, $2)`
	updateUserQuery    = `
		UPDATE users
		SET full_name = $1,
			phone = $2,
			password = COALESCE(NULLIF($3, ''), password),
			updated_at = now()
		WHERE id = $4
		RETURNING ` + userColumns
	getRoleQuery = `SELECT role FROM profiles WHERE user_id = $1`

	uniqueViolation = "23505"
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *PostgresRepository) get(ctx context.Context, query string, arg any) (User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (User, error) {
	return r.get(ctx, getUserByIDQuery, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.get(ctx, getUserByEmailQuery, email)
}

// Create inserts the user and its profile in one transaction.
func (r *PostgresRepository) Create(ctx context.Context, user User, role string) (User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return User{}, err
	}
	defer tx.Rollback()

	created, err := scanUser(tx.QueryRowContext(ctx, insertUserQuery, user.Email, user.Password, user.FullName, user.Phone))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, ErrEmailExists
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertProfileQuery, created.ID, role); err != nil {
		return User{}, fmt.Errorf("insert profile: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return User{}, err
	}
	return created, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int, userUpdate User) (User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, updateUserQuery, userUpdate.FullName, userUpdate.Phone, userUpdate.Password, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

func (r *PostgresRepository) RoleOf(ctx context.Context, id int) (string, error) {
	var role string
	if err := r.db.QueryRowContext(ctx, getRoleQuery, id).Scan(&role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return role, nil
}
