package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
)

type transactionRepo interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Transaction, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id, userID uuid.UUID) (*domain.Transaction, error)
	GetByGroupForUpdate(ctx context.Context, tx *sql.Tx, groupID, userID uuid.UUID) ([]domain.Transaction, error)
	DeleteByIDs(ctx context.Context, tx *sql.Tx, ids []uuid.UUID) error
	GetByAccountID(ctx context.Context, accountID, userID uuid.UUID) ([]domain.Transaction, error)
}

type accountRepo interface {
	Exists(ctx context.Context, tx *sql.Tx, id, userID uuid.UUID) error
	IncrementBalance(ctx context.Context, tx *sql.Tx, id, userID uuid.UUID, delta decimal.Decimal) error
}

type tagRepo interface {
	Upsert(ctx context.Context, tx *sql.Tx, userID uuid.UUID, name string) (uuid.UUID, error)
	Link(ctx context.Context, tx *sql.Tx, transactionID, tagID uuid.UUID) error
	UnlinkTransactions(ctx context.Context, tx *sql.Tx, transactionIDs []uuid.UUID) error
	NamesByTransaction(ctx context.Context, transactionID uuid.UUID) ([]string, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Service owns every balance change in the system. Callers that need a
// ledger write inside their own unit of work use CreateInTx.
type Service struct {
	transactions transactionRepo
	accounts     accountRepo
	tags         tagRepo
	db           txRunner
	now          func() time.Time
}

func NewService(transactions transactionRepo, accounts accountRepo, tags tagRepo, db txRunner) *Service {
	return &Service{
		transactions: transactions,
		accounts:     accounts,
		tags:         tags,
		db:           db,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Transaction, error) {
	t, err := s.transactions.GetByID(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}

	names, err := s.tags.NamesByTransaction(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	t.Tags = names

	return t, nil
}

// ListByAccount returns the owner's rows booked on accountID, newest first.
// Tags are not loaded.
func (s *Service) ListByAccount(ctx context.Context, ownerID, accountID uuid.UUID) ([]domain.Transaction, error) {
	txns, err := s.transactions.GetByAccountID(ctx, accountID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ListByAccount: %w", err)
	}
	return txns, nil
}
