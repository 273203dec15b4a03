package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
	"github.com/josh-kwaku/finance-ledger/internal/logging"
)

type CreateRequest struct {
	OwnerID              uuid.UUID
	Type                 domain.TransactionType
	Amount               decimal.Decimal
	Description          string
	Category             *string
	Date                 *time.Time
	AccountID            uuid.UUID
	DestinationAccountID *uuid.UUID
	Tags                 []string
	// RecurringID links a generated occurrence to its definition.
	RecurringID *uuid.UUID
}

// Create records one INCOME or EXPENSE row, or a DEBIT/CREDIT pair for a
// TRANSFER, and applies the matching balance deltas in the same unit.
func (s *Service) Create(ctx context.Context, req CreateRequest) ([]domain.Transaction, error) {
	log := logging.FromContext(ctx)

	if err := validateCreate(req); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	var created []domain.Transaction
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		created, err = s.CreateInTx(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	log.Info("transaction created",
		"transaction_id", created[0].ID,
		"type", req.Type,
		"amount", req.Amount.String(),
		"account_id", req.AccountID,
		"rows", len(created),
	)

	return created, nil
}

// CreateInTx is Create for callers that already hold a unit of work. The
// caller commits or rolls back tx.
func (s *Service) CreateInTx(ctx context.Context, tx *sql.Tx, req CreateRequest) ([]domain.Transaction, error) {
	if err := validateCreate(req); err != nil {
		return nil, fmt.Errorf("CreateInTx: %w", err)
	}

	date := s.now()
	if req.Date != nil {
		date = req.Date.UTC()
	}

	deltas := balanceDeltas{}
	created, err := s.insert(ctx, tx, req, date, uuid.New(), deltas)
	if err != nil {
		return nil, fmt.Errorf("CreateInTx: %w", err)
	}

	if err := deltas.apply(ctx, tx, s.accounts, req.OwnerID); err != nil {
		return nil, fmt.Errorf("CreateInTx: %w", err)
	}

	return created, nil
}

// insert writes the rows for req and records their balance effect in
// deltas without applying it. groupID is used only for transfers.
func (s *Service) insert(ctx context.Context, tx *sql.Tx, req CreateRequest, date time.Time, groupID uuid.UUID, deltas balanceDeltas) ([]domain.Transaction, error) {
	if err := s.accounts.Exists(ctx, tx, req.AccountID, req.OwnerID); err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}
	if req.Type == domain.TransactionTypeTransfer {
		if err := s.accounts.Exists(ctx, tx, *req.DestinationAccountID, req.OwnerID); err != nil {
			return nil, fmt.Errorf("insert: destination: %w", err)
		}
	}

	rows := buildRows(req, date, groupID, s.now())
	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		if err := s.transactions.Create(ctx, tx, &rows[i]); err != nil {
			return nil, fmt.Errorf("insert: %w", err)
		}
		deltas.add(rows[i].AccountID, rows[i].SignedAmount())
		ids[i] = rows[i].ID
	}

	tags := normalizeTags(req.Tags)
	if err := s.linkTags(ctx, tx, req.OwnerID, tags, ids...); err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}
	for i := range rows {
		rows[i].Tags = tags
	}

	return rows, nil
}

func buildRows(req CreateRequest, date time.Time, groupID uuid.UUID, now time.Time) []domain.Transaction {
	base := domain.Transaction{
		UserID:      req.OwnerID,
		Type:        req.Type,
		Amount:      req.Amount.Round(2),
		Description: req.Description,
		Category:    normalizeCategory(req.Category),
		Date:        date,
		AccountID:   req.AccountID,
		CreatedAt:   now,
	}
	if req.RecurringID != nil {
		id := *req.RecurringID
		base.RecurringID = &id
		base.IsRecurringGenerated = true
	}

	if req.Type != domain.TransactionTypeTransfer {
		base.ID = uuid.New()
		return []domain.Transaction{base}
	}

	if base.Category == nil {
		c := domain.CategoryTransfer
		base.Category = &c
	}
	source, dest := req.AccountID, *req.DestinationAccountID
	base.SourceAccountID = &source
	base.DestinationAccountID = &dest
	base.TransferGroupID = &groupID

	debitRole, creditRole := domain.TransferRoleDebit, domain.TransferRoleCredit

	debit := base
	debit.ID = uuid.New()
	debit.TransferRole = &debitRole

	credit := base
	credit.ID = uuid.New()
	credit.AccountID = dest
	credit.TransferRole = &creditRole

	return []domain.Transaction{debit, credit}
}

func normalizeCategory(c *string) *string {
	if c == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*c)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func validateCreate(req CreateRequest) error {
	// Amounts are stored with two decimals.
	if !req.Amount.Round(2).IsPositive() {
		return fmt.Errorf("validateCreate: %w", domain.ErrInvalidAmount)
	}
	if !req.Type.IsValid() {
		return fmt.Errorf("validateCreate: %q: %w", req.Type, domain.ErrInvalidType)
	}
	if req.AccountID == uuid.Nil {
		return fmt.Errorf("validateCreate: %w: account is required", domain.ErrInvalidInput)
	}
	if req.Type != domain.TransactionTypeTransfer {
		return nil
	}
	if req.DestinationAccountID == nil || *req.DestinationAccountID == uuid.Nil {
		return fmt.Errorf("validateCreate: %w", domain.ErrMissingDestination)
	}
	if *req.DestinationAccountID == req.AccountID {
		return fmt.Errorf("validateCreate: %w", domain.ErrSelfTransfer)
	}
	return nil
}
