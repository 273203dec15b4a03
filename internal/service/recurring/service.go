package recurring

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
	"github.com/josh-kwaku/finance-ledger/internal/service/ledger"
)

type recurringRepo interface {
	Create(ctx context.Context, d *domain.RecurringDefinition) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.RecurringDefinition, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.RecurringDefinition, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id, userID uuid.UUID) (*domain.RecurringDefinition, error)
	ListDue(ctx context.Context, userID uuid.UUID, now time.Time) ([]domain.RecurringDefinition, error)
	ListDueOwners(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	Advance(ctx context.Context, tx *sql.Tx, id uuid.UUID, nextRunAt, generatedAt time.Time, status domain.RecurringStatus) error
	UpdateStatus(ctx context.Context, tx *sql.Tx, id, userID uuid.UUID, status domain.RecurringStatus, endDate *time.Time) error
}

type occurrenceChecker interface {
	ExistsForRecurringInWindow(ctx context.Context, tx *sql.Tx, userID, recurringID uuid.UUID, from, to time.Time) (bool, error)
}

type accountChecker interface {
	GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Account, error)
}

type ledgerWriter interface {
	CreateInTx(ctx context.Context, tx *sql.Tx, req ledger.CreateRequest) ([]domain.Transaction, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Scheduler materialises recurring definitions into ledger transactions.
type Scheduler struct {
	definitions recurringRepo
	occurrences occurrenceChecker
	accounts    accountChecker
	ledger      ledgerWriter
	db          txRunner
	now         func() time.Time
}

func NewScheduler(
	definitions recurringRepo,
	occurrences occurrenceChecker,
	accounts accountChecker,
	ledgerSvc ledgerWriter,
	db txRunner,
) *Scheduler {
	return &Scheduler{
		definitions: definitions,
		occurrences: occurrences,
		accounts:    accounts,
		ledger:      ledgerSvc,
		db:          db,
		now:         func() time.Time { return time.Now().UTC() },
	}
}
