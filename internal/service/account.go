package service

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

type accountRepo interface {
	GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Account, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
	Create(ctx context.Context, account *domain.Account) error
	Rename(ctx context.Context, id, userID uuid.UUID, name string, accountType domain.AccountType) (*domain.Account, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id, userID uuid.UUID) (*domain.Account, error)
	CountReferences(ctx context.Context, tx *sql.Tx, id uuid.UUID) (domain.AccountReferences, error)
	Delete(ctx context.Context, tx *sql.Tx, id, userID uuid.UUID) error
}

type userChecker interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type AccountService struct {
	accounts accountRepo
	users    userChecker
	db       txRunner
}

func NewAccountService(accounts accountRepo, users userChecker, db txRunner) *AccountService {
	return &AccountService{accounts: accounts, users: users, db: db}
}

type CreateAccountRequest struct {
	OwnerID        uuid.UUID
	Name           string
	Type           domain.AccountType
	Currency       domain.Currency
	InitialBalance decimal.Decimal
}

// CreateAccount opens an account whose balance starts at the initial
// balance. Later balance changes only come from the ledger.
func (s *AccountService) CreateAccount(ctx context.Context, req CreateAccountRequest) (*domain.Account, error) {
	log := logging.FromContext(ctx)

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("CreateAccount: %w: name is required", domain.ErrInvalidInput)
	}
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("CreateAccount: %w: unknown account type %q", domain.ErrInvalidInput, req.Type)
	}
	currency := domain.Currency(strings.ToUpper(string(req.Currency)))
	if !currency.IsValid() {
		return nil, fmt.Errorf("CreateAccount: %w", domain.ErrInvalidCurrency)
	}
	initial := req.InitialBalance.Round(2)
	if initial.IsNegative() {
		return nil, fmt.Errorf("CreateAccount: %w: initial balance must not be negative", domain.ErrInvalidInput)
	}

	if _, err := s.users.GetByID(ctx, req.OwnerID); err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	account := &domain.Account{
		ID:             uuid.New(),
		UserID:         req.OwnerID,
		Name:           name,
		Type:           req.Type,
		Currency:       currency,
		InitialBalance: initial,
		Balance:        initial,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	log.Info("account created",
		"account_id", account.ID,
		"user_id", req.OwnerID,
		"type", account.Type,
		"currency", currency,
	)

	return account, nil
}

func (s *AccountService) ListAccounts(ctx context.Context, ownerID uuid.UUID) ([]domain.Account, error) {
	accounts, err := s.accounts.GetByUserID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	return accounts, nil
}

func (s *AccountService) GetAccount(ctx context.Context, ownerID, accountID uuid.UUID) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	return account, nil
}

// UpdateAccountRequest changes the fields that are set. Currency is fixed
// at creation because balances are stored in it.
type UpdateAccountRequest struct {
	OwnerID   uuid.UUID
	AccountID uuid.UUID
	Name      *string
	Type      *domain.AccountType
}

func (s *AccountService) UpdateAccount(ctx context.Context, req UpdateAccountRequest) (*domain.Account, error) {
	current, err := s.accounts.GetByID(ctx, req.AccountID, req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("UpdateAccount: %w", err)
	}

	name, accountType := current.Name, current.Type
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("UpdateAccount: %w: name is required", domain.ErrInvalidInput)
		}
	}
	if req.Type != nil {
		if !req.Type.IsValid() {
			return nil, fmt.Errorf("UpdateAccount: %w: unknown account type %q", domain.ErrInvalidInput, *req.Type)
		}
		accountType = *req.Type
	}

	updated, err := s.accounts.Rename(ctx, req.AccountID, req.OwnerID, name, accountType)
	if err != nil {
		return nil, fmt.Errorf("UpdateAccount: %w", err)
	}

	logging.FromContext(ctx).Info("account updated", "account_id", updated.ID, "type", updated.Type)
	return updated, nil
}

// DeleteAccount removes an account nothing depends on. The row lock taken
// first blocks inserts that would reference the account until the unit
// ends, so the reference count cannot go stale before the delete.
func (s *AccountService) DeleteAccount(ctx context.Context, ownerID, accountID uuid.UUID) error {
	log := logging.FromContext(ctx)

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.accounts.GetForUpdate(ctx, tx, accountID, ownerID); err != nil {
			return err
		}

		refs, err := s.accounts.CountReferences(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if refs.InUse() {
			log.Warn("account still referenced",
				"account_id", accountID,
				"transactions", refs.Transactions,
				"active_recurring", refs.ActiveRecurring,
				"loans", refs.Loans,
			)
			return domain.ErrAccountInUse
		}

		return s.accounts.Delete(ctx, tx, accountID, ownerID)
	})
	if err != nil {
		return fmt.Errorf("DeleteAccount: %w", err)
	}

	log.Info("account deleted", "account_id", accountID)
	return nil
}
