package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type TagRepository struct {
	db *sql.DB
}

func NewTagRepository(db *sql.DB) *TagRepository {
	return &TagRepository{db: db}
}

// Upsert returns the id of the user's tag called name, creating it if absent.
// The unique (user_id, name) constraint resolves concurrent first use; the
// no-op DO UPDATE makes RETURNING yield the existing row.
func (r *TagRepository) Upsert(ctx context.Context, tx *sql.Tx, userID uuid.UUID, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := tx.QueryRowContext(ctx,
		`INSERT INTO tags (id, user_id, name, created_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`,
		uuid.New(), userID, name, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("Upsert: %w", err)
	}
	return id, nil
}

func (r *TagRepository) Link(ctx context.Context, tx *sql.Tx, transactionID, tagID uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transaction_tags (transaction_id, tag_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		transactionID, tagID,
	)
	if err != nil {
		return fmt.Errorf("Link: %w", err)
	}
	return nil
}

func (r *TagRepository) UnlinkTransactions(ctx context.Context, tx *sql.Tx, transactionIDs []uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM transaction_tags WHERE transaction_id = ANY($1::uuid[])`,
		pq.StringArray(uuidStrings(transactionIDs)),
	)
	if err != nil {
		return fmt.Errorf("UnlinkTransactions: %w", err)
	}
	return nil
}

func (r *TagRepository) NamesByTransaction(ctx context.Context, transactionID uuid.UUID) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.name FROM tags t
		JOIN transaction_tags tt ON tt.tag_id = t.id
		WHERE tt.transaction_id = $1 ORDER BY t.name`,
		transactionID,
	)
	if err != nil {
		return nil, fmt.Errorf("NamesByTransaction: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("NamesByTransaction: scan: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("NamesByTransaction: rows: %w", err)
	}
	return names, nil
}
