package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
	"github.com/josh-kwaku/finance-ledger/internal/repository"
	"github.com/josh-kwaku/finance-ledger/internal/service"
	"github.com/josh-kwaku/finance-ledger/internal/service/ledger"
	"github.com/josh-kwaku/finance-ledger/internal/service/loan"
	"github.com/josh-kwaku/finance-ledger/internal/service/recurring"
	"github.com/josh-kwaku/finance-ledger/internal/testutil"
)

func TestDeleteAccount_ReferenceGuard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	store := repository.NewDB(db)
	accountRepo := repository.NewAccountRepository(db)
	transactions := repository.NewTransactionRepository(db)
	accounts := service.NewAccountService(accountRepo, repository.NewUserRepository(db), store)
	ledgerSvc := ledger.NewService(transactions, accountRepo, repository.NewTagRepository(db), store)
	scheduler := recurring.NewScheduler(repository.NewRecurringRepository(db), transactions, accountRepo, ledgerSvc, store)
	loans := loan.NewService(
		repository.NewLoanRepository(db),
		repository.NewScheduleRepository(db),
		repository.NewPrepaymentRepository(db),
		accountRepo,
		ledgerSvc,
		store,
	)

	user := testutil.SeedTestUser(t, db, "a@test.com", "A")
	other := testutil.SeedTestUser(t, db, "b@test.com", "B")

	t.Run("unused account is deleted", func(t *testing.T) {
		acct := testutil.SeedTestAccount(t, db, user.ID, "USD", testutil.D(t, "10.00"))

		require.ErrorIs(t, accounts.DeleteAccount(ctx, other.ID, acct.ID), domain.ErrAccountNotFound)
		require.NoError(t, accounts.DeleteAccount(ctx, user.ID, acct.ID))

		_, err := accounts.GetAccount(ctx, user.ID, acct.ID)
		require.ErrorIs(t, err, domain.ErrAccountNotFound)
	})

	t.Run("transactions block until removed", func(t *testing.T) {
		acct := testutil.SeedTestAccount(t, db, user.ID, "USD", testutil.D(t, "100.00"))
		created, err := ledgerSvc.Create(ctx, ledger.CreateRequest{
			OwnerID:     user.ID,
			Type:        domain.TransactionTypeExpense,
			Amount:      testutil.D(t, "20"),
			Description: "Lunch",
			AccountID:   acct.ID,
		})
		require.NoError(t, err)

		err = accounts.DeleteAccount(ctx, user.ID, acct.ID)
		require.ErrorIs(t, err, domain.ErrAccountInUse)

		require.NoError(t, ledgerSvc.Delete(ctx, user.ID, created[0].ID))
		require.NoError(t, accounts.DeleteAccount(ctx, user.ID, acct.ID))
	})

	t.Run("transfer destination blocks", func(t *testing.T) {
		src := testutil.SeedTestAccount(t, db, user.ID, "USD", testutil.D(t, "100.00"))
		dst := testutil.SeedTestAccount(t, db, user.ID, "USD", testutil.D(t, "0.00"))
		_, err := ledgerSvc.Create(ctx, ledger.CreateRequest{
			OwnerID:              user.ID,
			Type:                 domain.TransactionTypeTransfer,
			Amount:               testutil.D(t, "30"),
			Description:          "Move",
			AccountID:            src.ID,
			DestinationAccountID: &dst.ID,
		})
		require.NoError(t, err)

		require.ErrorIs(t, accounts.DeleteAccount(ctx, user.ID, dst.ID), domain.ErrAccountInUse)
	})

	t.Run("active recurring blocks, paused is removed with the account", func(t *testing.T) {
		acct := testutil.SeedTestAccount(t, db, user.ID, "USD", testutil.D(t, "0.00"))
		def, err := scheduler.CreateDefinition(ctx, recurring.CreateDefinitionRequest{
			OwnerID:   user.ID,
			Name:      "Gym",
			Amount:    testutil.D(t, "40"),
			Type:      domain.TransactionTypeExpense,
			Frequency: domain.FrequencyMonthly,
			StartDate: time.Now().UTC().AddDate(0, 1, 0),
			AccountID: acct.ID,
		})
		require.NoError(t, err)

		require.ErrorIs(t, accounts.DeleteAccount(ctx, user.ID, acct.ID), domain.ErrAccountInUse)

		require.NoError(t, scheduler.Pause(ctx, user.ID, def.ID))
		require.NoError(t, accounts.DeleteAccount(ctx, user.ID, acct.ID))

		_, err = scheduler.GetDefinition(ctx, user.ID, def.ID)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("loan blocks", func(t *testing.T) {
		acct := testutil.SeedTestAccount(t, db, user.ID, "USD", testutil.D(t, "0.00"))
		_, err := loans.CreateLoan(ctx, loan.CreateLoanRequest{
			OwnerID:      user.ID,
			AccountID:    acct.ID,
			Name:         "Car",
			Principal:    testutil.D(t, "1200"),
			InterestRate: testutil.D(t, "0"),
			TenureMonths: 12,
			StartDate:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)

		require.ErrorIs(t, accounts.DeleteAccount(ctx, user.ID, acct.ID), domain.ErrAccountInUse)
	})

	t.Run("missing account", func(t *testing.T) {
		require.ErrorIs(t, accounts.DeleteAccount(ctx, user.ID, uuid.New()), domain.ErrAccountNotFound)
	})
}

func TestUpdateAccount_Persists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	accounts := service.NewAccountService(
		repository.NewAccountRepository(db),
		repository.NewUserRepository(db),
		repository.NewDB(db),
	)

	user := testutil.SeedTestUser(t, db, "a@test.com", "A")
	acct := testutil.SeedTestAccount(t, db, user.ID, "GBP", testutil.D(t, "75.50"))

	name := "Travel card"
	cardType := domain.AccountTypeCreditCard
	updated, err := accounts.UpdateAccount(ctx, service.UpdateAccountRequest{
		OwnerID: user.ID, AccountID: acct.ID, Name: &name, Type: &cardType,
	})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	got, err := accounts.GetAccount(ctx, user.ID, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)
	assert.Equal(t, domain.AccountTypeCreditCard, got.Type)
	assert.Equal(t, domain.Currency("GBP"), got.Currency)
	assert.Equal(t, "75.50", got.Balance.StringFixed(2))
}
