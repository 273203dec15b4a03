package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
	"github.com/josh-kwaku/finance-ledger/internal/repository"
	"github.com/josh-kwaku/finance-ledger/internal/testutil"
)

func TestUserRepository_Ensure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	created, err := users.Ensure(ctx, "Owner@Test.com", "Owner", "hash-1")
	require.NoError(t, err)
	assert.Equal(t, "owner@test.com", created.Email)
	assert.Equal(t, "hash-1", created.PasswordHash)

	again, err := users.Ensure(ctx, "owner@test.com", "Someone Else", "")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "Owner", again.Name)
	assert.Equal(t, "hash-1", again.PasswordHash, "empty hash keeps the stored one")

	rotated, err := users.Ensure(ctx, "owner@test.com", "", "hash-2")
	require.NoError(t, err)
	assert.Equal(t, "hash-2", rotated.PasswordHash)

	byEmail, err := users.GetByEmail(ctx, "OWNER@test.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = users.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := repository.NewDB(db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "a@test.com", "A")
	acct := testutil.SeedTestAccount(t, db, user.ID, "USD", testutil.D(t, "100.00"))
	accounts := repository.NewAccountRepository(db)

	err := store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := accounts.IncrementBalance(ctx, tx, acct.ID, user.ID, testutil.D(t, "-40")); err != nil {
			return err
		}
		return domain.ErrInstallmentPaid
	})
	require.ErrorIs(t, err, domain.ErrInstallmentPaid)
	assert.Equal(t, "100.00", testutil.GetAccountBalance(t, db, acct.ID).StringFixed(2))

	err = store.WithTx(ctx, func(tx *sql.Tx) error {
		return accounts.IncrementBalance(ctx, tx, uuid.New(), user.ID, testutil.D(t, "1"))
	})
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestWithTx_ForeignKeyViolationIsInvalidState(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := repository.NewDB(db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "a@test.com", "A")
	testutil.SeedTestAccount(t, db, user.ID, "USD", testutil.D(t, "0"))

	err := store.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, user.ID)
		return err
	})
	require.ErrorIs(t, err, domain.ErrInvalidState)
	assert.False(t, errors.Is(err, domain.ErrStoreFailure))
}

func TestIdempotencyRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewIdempotencyRepository(db)
	ctx := context.Background()
	owner := uuid.New()

	rec := &repository.IdempotencyRecord{
		Key:          "k1",
		OwnerID:      owner,
		RequestHash:  "h1",
		StatusCode:   201,
		ResponseBody: []byte(`{"success":true}`),
	}
	require.NoError(t, repo.Save(ctx, rec, time.Hour))
	assert.True(t, rec.ExpiresAt.After(rec.CreatedAt))

	got, err := repo.Lookup(ctx, "k1", owner)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "h1", got.RequestHash)
	assert.Equal(t, 201, got.StatusCode)
	assert.JSONEq(t, `{"success":true}`, string(got.ResponseBody))

	other, err := repo.Lookup(ctx, "k1", uuid.New())
	require.NoError(t, err)
	assert.Nil(t, other)

	// a live record is not overwritten
	require.NoError(t, repo.Save(ctx, &repository.IdempotencyRecord{
		Key: "k1", OwnerID: owner, RequestHash: "h2", StatusCode: 200, ResponseBody: []byte(`{}`),
	}, time.Hour))
	got, err = repo.Lookup(ctx, "k1", owner)
	require.NoError(t, err)
	assert.Equal(t, "h1", got.RequestHash)
}

func TestIdempotencyRepository_Expiry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewIdempotencyRepository(db)
	ctx := context.Background()
	owner := uuid.New()

	short := &repository.IdempotencyRecord{Key: "k", OwnerID: owner, RequestHash: "old", StatusCode: 200, ResponseBody: []byte(`{}`)}
	require.NoError(t, repo.Save(ctx, short, time.Millisecond))
	time.Sleep(50 * time.Millisecond)

	got, err := repo.Lookup(ctx, "k", owner)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, repo.Save(ctx, &repository.IdempotencyRecord{
		Key: "k", OwnerID: owner, RequestHash: "new", StatusCode: 200, ResponseBody: []byte(`{}`),
	}, time.Hour))
	got, err = repo.Lookup(ctx, "k", owner)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "new", got.RequestHash)

	require.NoError(t, repo.Save(ctx, &repository.IdempotencyRecord{
		Key: "gone", OwnerID: owner, RequestHash: "x", StatusCode: 200, ResponseBody: []byte(`{}`),
	}, time.Millisecond))
	time.Sleep(50 * time.Millisecond)

	n, err := repo.CleanExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestNetWorthRepository_CRUD(t *testing.T) {
	db := testutil.SetupTestDB(t)
	entries := repository.NewNetWorthRepository(db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "a@test.com", "A")
	other := testutil.SeedTestUser(t, db, "b@test.com", "B")

	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	newEntry := func(name string, kind domain.NetWorthEntryType, updated time.Time) *domain.NetWorthEntry {
		e := &domain.NetWorthEntry{
			ID:            uuid.New(),
			UserID:        user.ID,
			Type:          kind,
			Category:      "Misc",
			Name:          name,
			CurrentValue:  testutil.D(t, "1000.50"),
			Currency:      "USD",
			ValuationDate: base,
			CreatedAt:     base,
			UpdatedAt:     updated,
		}
		require.NoError(t, entries.Create(ctx, e))
		return e
	}

	car := newEntry("Car", domain.NetWorthEntryAsset, base)
	loan := newEntry("Family loan", domain.NetWorthEntryDebt, base.Add(time.Hour))

	list, err := entries.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, loan.ID, list[0].ID, "most recently updated first")
	assert.Equal(t, domain.Currency("USD"), list[1].Currency)
	assert.Nil(t, list[1].Notes)

	notes := "resale estimate"
	car.CurrentValue = testutil.D(t, "900")
	car.Notes = &notes
	car.UpdatedAt = base.Add(2 * time.Hour)
	require.NoError(t, entries.Update(ctx, car))

	got, err := entries.GetByID(ctx, car.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "900.00", got.CurrentValue.StringFixed(2))
	require.NotNil(t, got.Notes)
	assert.Equal(t, notes, *got.Notes)

	list, err = entries.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, car.ID, list[0].ID)

	_, err = entries.GetByID(ctx, car.ID, other.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, entries.Delete(ctx, car.ID, other.ID), domain.ErrNotFound)

	require.NoError(t, entries.Delete(ctx, car.ID, user.ID))
	_, err = entries.GetByID(ctx, car.ID, user.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
