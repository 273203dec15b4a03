package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
	"github.com/josh-kwaku/finance-ledger/internal/repository"
)

// TestPassword is the login password of every seeded owner.
const TestPassword = "password123"

// SeedTestUser registers an owner through the same upsert the CLI uses.
func SeedTestUser(t *testing.T, db *sql.DB, email, name string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u, err := repository.NewUserRepository(db).Ensure(context.Background(), email, name, string(hash))
	if err != nil {
		t.Fatalf("seed test user %s: %v", email, err)
	}
	return u
}

// SeedTestAccount inserts a BANK account whose balance and initial
// balance are both balance.
func SeedTestAccount(t *testing.T, db *sql.DB, userID uuid.UUID, currency string, balance decimal.Decimal) *domain.Account {
	t.Helper()

	a := &domain.Account{
		ID:             uuid.New(),
		UserID:         userID,
		Name:           "Test " + currency,
		Type:           domain.AccountTypeBank,
		Currency:       domain.Currency(currency),
		InitialBalance: balance,
		Balance:        balance,
		CreatedAt:      time.Now().UTC(),
	}
	_, err := db.Exec(
		`INSERT INTO accounts (id, user_id, name, account_type, currency, initial_balance, balance, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.UserID, a.Name, a.Type, a.Currency, a.InitialBalance, a.Balance, a.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test account %s/%s: %v", userID, currency, err)
	}
	return a
}

func GetAccountBalance(t *testing.T, db *sql.DB, accountID uuid.UUID) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(`SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		t.Fatalf("get account balance %s: %v", accountID, err)
	}
	return balance
}

func CountTransactions(t *testing.T, db *sql.DB, userID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions for user %s: %v", userID, err)
	}
	return count
}

func CountRecurringOccurrences(t *testing.T, db *sql.DB, recurringID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE recurring_id = $1`, recurringID).Scan(&count)
	if err != nil {
		t.Fatalf("count occurrences for recurring %s: %v", recurringID, err)
	}
	return count
}

func CountTagLinks(t *testing.T, db *sql.DB, transactionID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM transaction_tags WHERE transaction_id = $1`, transactionID).Scan(&count)
	if err != nil {
		t.Fatalf("count tag links for transaction %s: %v", transactionID, err)
	}
	return count
}

func CountTags(t *testing.T, db *sql.DB, userID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM tags WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		t.Fatalf("count tags for user %s: %v", userID, err)
	}
	return count
}

// D parses a decimal literal and fails the test on bad input.
func D(t *testing.T, s string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}
