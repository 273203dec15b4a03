package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IdempotencyRecord is a stored response for one (key, owner) pair. A
// replay with a different RequestHash is a conflict.
type IdempotencyRecord struct {
	Key          string
	OwnerID      uuid.UUID
	RequestHash  string
	StatusCode   int
	ResponseBody []byte
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

type IdempotencyRepository struct {
	db *sql.DB
}

func NewIdempotencyRepository(db *sql.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// Lookup returns nil, nil when no live record exists.
func (r *IdempotencyRepository) Lookup(ctx context.Context, key string, ownerID uuid.UUID) (*IdempotencyRecord, error) {
	var rec IdempotencyRecord
	err := r.db.QueryRowContext(ctx,
		`SELECT idempotency_key, user_id, request_hash, status_code, response_body, created_at, expires_at
		FROM idempotency_cache
		WHERE idempotency_key = $1 AND user_id = $2 AND expires_at > now()`,
		key, ownerID,
	).Scan(&rec.Key, &rec.OwnerID, &rec.RequestHash, &rec.StatusCode, &rec.ResponseBody, &rec.CreatedAt, &rec.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Lookup: %w", err)
	}
	return &rec, nil
}

// Save stores rec for ttl. An expired record under the same key is
// replaced; a live one wins.
func (r *IdempotencyRepository) Save(ctx context.Context, rec *IdempotencyRecord, ttl time.Duration) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO idempotency_cache (idempotency_key, user_id, request_hash, status_code, response_body, expires_at)
		VALUES ($1, $2, $3, $4, $5, now() + make_interval(secs => $6::double precision))
		ON CONFLICT (idempotency_key, user_id) DO UPDATE
			SET request_hash = EXCLUDED.request_hash,
				status_code = EXCLUDED.status_code,
				response_body = EXCLUDED.response_body,
				created_at = now(),
				expires_at = EXCLUDED.expires_at
			WHERE idempotency_cache.expires_at <= now()
		RETURNING created_at, expires_at`,
		rec.Key, rec.OwnerID, rec.RequestHash, rec.StatusCode, rec.ResponseBody, ttl.Seconds(),
	).Scan(&rec.CreatedAt, &rec.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		// a concurrent request with the same key stored first
		return nil
	}
	if err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	return nil
}

func (r *IdempotencyRepository) CleanExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM idempotency_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("CleanExpired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("CleanExpired: rows affected: %w", err)
	}
	return n, nil
}
