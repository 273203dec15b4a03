package loan_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
	"github.com/josh-kwaku/finance-ledger/internal/repository"
	"github.com/josh-kwaku/finance-ledger/internal/service/ledger"
	"github.com/josh-kwaku/finance-ledger/internal/service/loan"
	"github.com/josh-kwaku/finance-ledger/internal/testutil"
)

type harness struct {
	loans  *loan.Service
	ledger *ledger.Service
}

func setupLoanService(t *testing.T, db *sql.DB) harness {
	t.Helper()
	store := repository.NewDB(db)
	accounts := repository.NewAccountRepository(db)
	ledgerSvc := ledger.NewService(
		repository.NewTransactionRepository(db),
		accounts,
		repository.NewTagRepository(db),
		store,
	)
	return harness{
		loans: loan.NewService(
			repository.NewLoanRepository(db),
			repository.NewScheduleRepository(db),
			repository.NewPrepaymentRepository(db),
			accounts,
			ledgerSvc,
			store,
		),
		ledger: ledgerSvc,
	}
}

var loanStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func createLoan(t *testing.T, svc *loan.Service, owner, account uuid.UUID, principal, rate string, months int) *loan.LoanDetails {
	t.Helper()
	details, err := svc.CreateLoan(context.Background(), loan.CreateLoanRequest{
		OwnerID:      owner,
		AccountID:    account,
		Name:         "Mortgage",
		Principal:    testutil.D(t, principal),
		InterestRate: testutil.D(t, rate),
		TenureMonths: months,
		StartDate:    loanStart,
	})
	require.NoError(t, err)
	return details
}

func TestCreateLoan_PersistsSchedule(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := setupLoanService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "a@test.com", "A")
	acct := testutil.SeedTestAccount(t, db, user.ID, "USD", testutil.D(t, "1000.00"))

	created := createLoan(t, h.loans, user.ID, acct.ID, "120000", "12", 12)
	assert.Equal(t, "10661.85", created.Loan.EMIAmount.StringFixed(2))

	got, err := h.loans.GetLoan(ctx, user.ID, created.Loan.ID)
	require.NoError(t, err)
	require.Len(t, got.Schedule, 12)
	assert.Empty(t, got.Prepayments)
	assert.True(t, got.Loan.RemainingPrincipal.Equal(testutil.D(t, "120000")))
	assert.Equal(t, domain.LoanStatusActive, got.Loan.Status)
	assert.True(t, got.Schedule[0].DueDate.Equal(loanStart))
	assert.Equal(t, "9461.85", got.Schedule[0].PrincipalComponent.StringFixed(2))

	// creating a loan does not move money
	assert.True(t, testutil.GetAccountBalance(t, db, acct.ID).Equal(testutil.D(t, "1000.00")))

	list, err := h.loans.ListLoans(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = h.loans.GetLoan(ctx, uuid.New(), created.Loan.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPayInstallment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := setupLoanService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "a@test.com", "A")
	acct := testutil.SeedTestAccount(t, db, user.ID, "USD", testutil.D(t, "50000.00"))
	created := createLoan(t, h.loans, user.ID, acct.ID, "120000", "12", 12)
	row := created.Schedule[0]

	paidOn := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	res, err := h.loans.PayInstallment(ctx, loan.PayInstallmentRequest{
		OwnerID: user.ID,
		LoanID:  created.Loan.ID,
		RowID:   row.ID,
		Date:    &paidOn,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ScheduleStatusPaid, res.Row.Status)
	assert.Equal(t, "110538.15", res.Loan.RemainingPrincipal.StringFixed(2))
	assert.Equal(t, "9461.85", res.Loan.PaidPrincipal.StringFixed(2))
	assert.Equal(t, "1200.00", res.Loan.PaidInterest.StringFixed(2))
	assert.Equal(t, "EMI Payment - Mortgage", res.Transaction.Description)
	assert.Equal(t, domain.CategoryLoanEMI, *res.Transaction.Category)
	assert.Equal(t, domain.TransactionTypeExpense, res.Transaction.Type)

	// one decrement of the installment amount
	assert.Equal(t, "39338.15", testutil.GetAccountBalance(t, db, acct.ID).StringFixed(2))

	got, err := h.loans.GetLoan(ctx, user.ID, created.Loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ScheduleStatusPaid, got.Schedule[0].Status)
	require.NotNil(t, got.Schedule[0].TransactionID)
	assert.Equal(t, res.Transaction.ID, *got.Schedule[0].TransactionID)
	assert.True(t, got.Schedule[0].PaidAt.Equal(paidOn))

	_, err = h.loans.PayInstallment(ctx, loan.PayInstallmentRequest{
		OwnerID: user.ID, LoanID: created.Loan.ID, RowID: row.ID,
	})
	require.ErrorIs(t, err, domain.ErrInstallmentPaid)
	assert.Equal(t, "39338.15", testutil.GetAccountBalance(t, db, acct.ID).StringFixed(2))

	// the payment transaction is referenced by the schedule row
	err = h.ledger.Delete(ctx, user.ID, res.Transaction.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestPayInstallment_ClosesLoan(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := setupLoanService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "a@test.com", "A")
	acct := testutil.SeedTestAccount(t, db, user.ID, "USD", testutil.D(t, "1000.00"))
	// 333.33 x 3 leaves a cent inside the closing tolerance
	created := createLoan(t, h.loans, user.ID, acct.ID, "1000", "0", 3)

	var last *loan.InstallmentResult
	for _, row := range created.Schedule {
		res, err := h.loans.PayInstallment(ctx, loan.PayInstallmentRequest{
			OwnerID: user.ID, LoanID: created.Loan.ID, RowID: row.ID,
		})
		require.NoError(t, err)
		last = res
	}

	assert.Equal(t, domain.LoanStatusClosed, last.Loan.Status)
	assert.True(t, last.Loan.RemainingPrincipal.IsZero())
	assert.Equal(t, "0.01", testutil.GetAccountBalance(t, db, acct.ID).StringFixed(2))

	got, err := h.loans.GetLoan(ctx, user.ID, created.Loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusClosed, got.Loan.Status)
	assert.True(t, got.Loan.RemainingPrincipal.IsZero())
}

func TestPayInstallment_OvershootFloorsAtZero(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := setupLoanService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "a@test.com", "A")
	acct := testutil.SeedTestAccount(t, db, user.ID, "USD", testutil.D(t, "200000.00"))
	// principal components sum to 100000.01
	created := createLoan(t, h.loans, user.ID, acct.ID, "100000", "12", 6)

	for _, row := range created.Schedule {
		_, err := h.loans.PayInstallment(ctx, loan.PayInstallmentRequest{
			OwnerID: user.ID, LoanID: created.Loan.ID, RowID: row.ID,
		})
		require.NoError(t, err)
	}

	got, err := h.loans.GetLoan(ctx, user.ID, created.Loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusClosed, got.Loan.Status)
	assert.True(t, got.Loan.RemainingPrincipal.IsZero())
	assert.Equal(t, "100000.01", got.Loan.PaidPrincipal.StringFixed(2))
}

func TestPrepay_RebuildsPendingRows(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := setupLoanService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "a@test.com", "A")
	acct := testutil.SeedTestAccount(t, db, user.ID, "USD", testutil.D(t, "200000.00"))
	created := createLoan(t, h.loans, user.ID, acct.ID, "100000", "12", 6)
	assert.Equal(t, "17254.84", created.Loan.EMIAmount.StringFixed(2))

	res, err := h.loans.Prepay(ctx, loan.PrepayRequest{
		OwnerID: user.ID,
		LoanID:  created.Loan.ID,
		Amount:  testutil.D(t, "20000"),
	})
	require.NoError(t, err)

	assert.Equal(t, "80000.00", res.Loan.RemainingPrincipal.StringFixed(2))
	assert.Equal(t, "13803.87", res.Loan.EMIAmount.StringFixed(2))
	assert.Equal(t, domain.LoanStatusActive, res.Loan.Status)
	assert.Equal(t, "Loan prepayment - Mortgage", res.Transaction.Description)
	assert.Equal(t, domain.CategoryLoanPrepayment, *res.Transaction.Category)
	require.Len(t, res.Schedule, 6)

	assert.Equal(t, "180000.00", testutil.GetAccountBalance(t, db, acct.ID).StringFixed(2))

	got, err := h.loans.GetLoan(ctx, user.ID, created.Loan.ID)
	require.NoError(t, err)
	require.Len(t, got.Schedule, 6)
	require.Len(t, got.Prepayments, 1)
	assert.Equal(t, res.Transaction.ID, got.Prepayments[0].TransactionID)
	assert.Equal(t, "13803.87", got.Loan.EMIAmount.StringFixed(2))

	for i, row := range got.Schedule {
		assert.True(t, row.DueDate.Equal(created.Schedule[i].DueDate), "row %d due date moved", i)
		assert.Equal(t, "13803.87", row.Amount.StringFixed(2))
		assert.Equal(t, domain.ScheduleStatusPending, row.Status)
	}
	assert.Equal(t, "13003.87", got.Schedule[0].PrincipalComponent.StringFixed(2))
	assert.Equal(t, "800.00", got.Schedule[0].InterestComponent.StringFixed(2))
}

func TestPrepay_AfterInstallmentKeepsPaidRows(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := setupLoanService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "a@test.com", "A")
	acct := testutil.SeedTestAccount(t, db, user.ID, "USD", testutil.D(t, "200000.00"))
	created := createLoan(t, h.loans, user.ID, acct.ID, "120000", "12", 12)

	_, err := h.loans.PayInstallment(ctx, loan.PayInstallmentRequest{
		OwnerID: user.ID, LoanID: created.Loan.ID, RowID: created.Schedule[0].ID,
	})
	require.NoError(t, err)

	res, err := h.loans.Prepay(ctx, loan.PrepayRequest{
		OwnerID: user.ID, LoanID: created.Loan.ID, Amount: testutil.D(t, "10538.15"),
	})
	require.NoError(t, err)
	assert.Equal(t, "100000.00", res.Loan.RemainingPrincipal.StringFixed(2))
	require.Len(t, res.Schedule, 11)

	got, err := h.loans.GetLoan(ctx, user.ID, created.Loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ScheduleStatusPaid, got.Schedule[0].Status)
	assert.Equal(t, "10661.85", got.Schedule[0].Amount.StringFixed(2))
	assert.True(t, got.Schedule[1].DueDate.Equal(created.Schedule[1].DueDate))
	assert.True(t, got.Schedule[1].Amount.LessThan(created.Schedule[1].Amount))
}

func TestPrepay_Rejections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := setupLoanService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "a@test.com", "A")
	acct := testutil.SeedTestAccount(t, db, user.ID, "USD", testutil.D(t, "5000.00"))
	created := createLoan(t, h.loans, user.ID, acct.ID, "1200", "0", 12)

	_, err := h.loans.Prepay(ctx, loan.PrepayRequest{
		OwnerID: user.ID, LoanID: created.Loan.ID, Amount: testutil.D(t, "1200.01"),
	})
	require.ErrorIs(t, err, domain.ErrPrepaymentExceedsPrincipal)

	_, err = h.loans.Prepay(ctx, loan.PrepayRequest{
		OwnerID: user.ID, LoanID: created.Loan.ID, Amount: decimal.Zero,
	})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	assert.Equal(t, "5000.00", testutil.GetAccountBalance(t, db, acct.ID).StringFixed(2))

	// paying the whole remainder closes the loan and leaves rows pending
	res, err := h.loans.Prepay(ctx, loan.PrepayRequest{
		OwnerID: user.ID, LoanID: created.Loan.ID, Amount: testutil.D(t, "1200"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusClosed, res.Loan.Status)
	assert.Empty(t, res.Schedule)
	assert.Equal(t, "3800.00", testutil.GetAccountBalance(t, db, acct.ID).StringFixed(2))

	_, err = h.loans.Prepay(ctx, loan.PrepayRequest{
		OwnerID: user.ID, LoanID: created.Loan.ID, Amount: testutil.D(t, "1"),
	})
	require.ErrorIs(t, err, domain.ErrLoanNotActive)

	_, err = h.loans.PayInstallment(ctx, loan.PayInstallmentRequest{
		OwnerID: user.ID, LoanID: created.Loan.ID, RowID: created.Schedule[0].ID,
	})
	require.ErrorIs(t, err, domain.ErrLoanNotActive)
}

func TestCreateLoan_ForeignAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := setupLoanService(t, db)

	alice := testutil.SeedTestUser(t, db, "alice@test.com", "Alice")
	bob := testutil.SeedTestUser(t, db, "bob@test.com", "Bob")
	bobAcct := testutil.SeedTestAccount(t, db, bob.ID, "USD", testutil.D(t, "0.00"))

	_, err := h.loans.CreateLoan(context.Background(), loan.CreateLoanRequest{
		OwnerID:      alice.ID,
		AccountID:    bobAcct.ID,
		Name:         "Sneaky",
		Principal:    testutil.D(t, "100"),
		InterestRate: decimal.Zero,
		TenureMonths: 1,
		StartDate:    loanStart,
	})
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestPrepay_ResidualTooSmallRollsBack(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := setupLoanService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "a@test.com", "A")
	acct := testutil.SeedTestAccount(t, db, user.ID, "USD", testutil.D(t, "2000.00"))
	created := createLoan(t, h.loans, user.ID, acct.ID, "1000", "0", 12)

	// 0.05 over 12 pending rows would give 0.00 installments nobody can pay
	_, err := h.loans.Prepay(ctx, loan.PrepayRequest{
		OwnerID: user.ID, LoanID: created.Loan.ID, Amount: testutil.D(t, "999.95"),
	})
	require.ErrorIs(t, err, domain.ErrInstallmentTooSmall)

	got, err := h.loans.GetLoan(ctx, user.ID, created.Loan.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", got.Loan.RemainingPrincipal.StringFixed(2))
	assert.Equal(t, "83.33", got.Loan.EMIAmount.StringFixed(2))
	assert.Empty(t, got.Prepayments)
	assert.Equal(t, "2000.00", testutil.GetAccountBalance(t, db, acct.ID).StringFixed(2))
	assert.Equal(t, 0, testutil.CountTransactions(t, db, user.ID))

	res, err := h.loans.Prepay(ctx, loan.PrepayRequest{
		OwnerID: user.ID, LoanID: created.Loan.ID, Amount: testutil.D(t, "999.94"),
	})
	require.NoError(t, err)
	require.Len(t, res.Schedule, 12)
	assert.Equal(t, "0.01", res.Loan.EMIAmount.StringFixed(2))
}

func TestCreateLoan_RejectsUnpayableTerms(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := setupLoanService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "a@test.com", "A")
	acct := testutil.SeedTestAccount(t, db, user.ID, "USD", testutil.D(t, "0.00"))

	req := loan.CreateLoanRequest{
		OwnerID:      user.ID,
		AccountID:    acct.ID,
		Name:         "Pocket",
		Principal:    testutil.D(t, "0.01"),
		InterestRate: testutil.D(t, "5"),
		TenureMonths: 600,
		StartDate:    loanStart,
	}
	_, err := h.loans.CreateLoan(ctx, req)
	require.ErrorIs(t, err, domain.ErrInstallmentTooSmall)

	req.Principal = testutil.D(t, "1000")
	req.InterestRate = testutil.D(t, "5.00001")
	_, err = h.loans.CreateLoan(ctx, req)
	require.ErrorIs(t, err, domain.ErrInvalidSchedule)

	loans, err := h.loans.ListLoans(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, loans)
}
