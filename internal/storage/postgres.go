package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type Postgres struct {
	db *sql.DB
}

var _ KV = (*Postgres)(nil)

const (
	getValueQuery = `
		SELECT value FROM client_storage
		WHERE owner = $1 AND key = $2 AND (expires_at IS NULL OR expires_at > now())
	`
	upsertValueQuery = `
		INSERT INTO client_storage (owner, key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (owner, key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = now()
	`
	deleteValueQuery  = `DELETE FROM client_storage WHERE owner = $1 AND key = $2`
	purgeExpiredQuery = `DELETE FROM client_storage WHERE owner = $1 AND expires_at <= now()`
)

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Get(ctx context.Context, owner, key string) (string, bool, error) {
	var v string
	if err := p.db.QueryRowContext(ctx, getValueQuery, owner, key).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

func (p *Postgres) Set(ctx context.Context, owner, key, value string) error {
	return p.SetTTL(ctx, owner, key, value, 0)
}

// SetTTL stores an expiry timestamp; expired rows of the owner are purged on
// every expiring write.
func (p *Postgres) SetTTL(ctx context.Context, owner, key, value string, ttl time.Duration) error {
	var expiresAt sql.NullTime
	if ttl > 0 {
		expiresAt = sql.NullTime{Time: time.Now().Add(ttl).UTC(), Valid: true}
	}
	if _, err := p.db.ExecContext(ctx, upsertValueQuery, owner, key, value, expiresAt); err != nil {
		return err
	}
	if !expiresAt.Valid {
		return nil
	}
	_, err := p.db.ExecContext(ctx, purgeExpiredQuery, owner)
	return err
}

func (p *Postgres) Delete(ctx context.Context, owner, key string) error {
	_, err := p.db.ExecContext(ctx, deleteValueQuery, owner, key)
	return err
}
