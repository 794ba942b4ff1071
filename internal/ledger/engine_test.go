package ledger

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"testing"
	"wallet_ledger/internal/domain"
	"wallet_ledger/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestEngine(t *testing.T) (*Engine, *gorm.DB, *domain.User) {
	t.Helper()
	gdb := testutil.NewDB(t)
	log := logrus.New()
	log.SetOutput(io.Discard)
	owner := testutil.CreateUser(t, gdb, "owner", "")
	return NewEngine(gdb, log), gdb, owner
}

// newSharedEngine runs the engine over a pool of several connections
func newSharedEngine(t *testing.T) (*Engine, *gorm.DB, *domain.User) {
	t.Helper()
	gdb := testutil.NewFileDB(t, 8)
	log := logrus.New()
	log.SetOutput(io.Discard)
	owner := testutil.CreateUser(t, gdb, "owner", "")
	return NewEngine(gdb, log), gdb, owner
}

func balanceOf(t *testing.T, gdb *gorm.DB, walletID uint) float64 {
	t.Helper()
	var w domain.Wallet
	require.NoError(t, gdb.First(&w, walletID).Error)
	return w.Balance
}

func countEntries(t *testing.T, gdb *gorm.DB, walletID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(&domain.Transaction{}).Where("wallet_id = ?", walletID).Count(&n).Error)
	return n
}

func strPtr(s string) *string { return &s }

func TestApplyDebitThenInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	e, gdb, owner := newTestEngine(t)
	w := testutil.CreateWallet(t, gdb, owner.ID, 100)

	tx, err := e.Apply(ctx, w.ID, 50, domain.Debit, strPtr("groceries"))
	require.NoError(t, err)
	assert.Equal(t, domain.Debit, tx.Type)
	assert.Equal(t, 50.0, tx.Amount)
	assert.Equal(t, "groceries", *tx.Description)
	assert.Equal(t, 50.0, balanceOf(t, gdb, w.ID))

	_, err = e.Apply(ctx, w.ID, 75, domain.Debit, nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, 50.0, balanceOf(t, gdb, w.ID))
	assert.Equal(t, int64(1), countEntries(t, gdb, w.ID))
}

func TestApplyCredit(t *testing.T) {
	ctx := context.Background()
	e, gdb, owner := newTestEngine(t)
	w := testutil.CreateWallet(t, gdb, owner.ID, 0)

	_, err := e.Apply(ctx, w.ID, 0.1, domain.Credit, nil)
	require.NoError(t, err)
	_, err = e.Apply(ctx, w.ID, 0.2, domain.Credit, nil)
	require.NoError(t, err)

	assert.Equal(t, 0.3, balanceOf(t, gdb, w.ID))
}

func TestApplyWalletNotFound(t *testing.T) {
	e, _, _ := newTestEngine(t)

	_, err := e.Apply(context.Background(), 999, 10, domain.Credit, nil)

	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Wallet not found", appErr.Detail)
}

func TestApplyRejectsInvalidEntries(t *testing.T) {
	ctx := context.Background()
	e, gdb, owner := newTestEngine(t)
	w := testutil.CreateWallet(t, gdb, owner.ID, 10)

	_, err := e.Apply(ctx, w.ID, 0, domain.Credit, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = e.Apply(ctx, w.ID, -5, domain.Debit, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = e.Apply(ctx, w.ID, 5, domain.TransactionType("refund"), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Equal(t, 10.0, balanceOf(t, gdb, w.ID))
	assert.Zero(t, countEntries(t, gdb, w.ID))
}

func TestBalanceConsistencyOverSequence(t *testing.T) {
	ctx := context.Background()
	e, gdb, owner := newTestEngine(t)
	w := testutil.CreateWallet(t, gdb, owner.ID, 20)

	steps := []struct {
		amount float64
		kind   domain.TransactionType
	}{
		{15, domain.Debit}, {30, domain.Debit}, {40, domain.Credit}, {12.5, domain.Debit},
		{100, domain.Debit}, {7.25, domain.Credit}, {39.75, domain.Debit},
	}
	expected := decimal.NewFromInt(20)
	for _, s := range steps {
		_, err := e.Apply(ctx, w.ID, s.amount, s.kind, nil)
		if err != nil {
			require.ErrorIs(t, err, domain.ErrInsufficientFunds)
			continue
		}
		if s.kind == domain.Credit {
			expected = expected.Add(decimal.NewFromFloat(s.amount))
		} else {
			expected = expected.Sub(decimal.NewFromFloat(s.amount))
		}
	}

	assert.Equal(t, expected.InexactFloat64(), balanceOf(t, gdb, w.ID))
	assert.Equal(t, 0.0, balanceOf(t, gdb, w.ID))
	assert.Equal(t, int64(5), countEntries(t, gdb, w.ID))
}

func TestReapplyReversesBeforeApplying(t *testing.T) {
	ctx := context.Background()
	e, gdb, owner := newTestEngine(t)
	w := testutil.CreateWallet(t, gdb, owner.ID, 100)

	tx, err := e.Apply(ctx, w.ID, 50, domain.Debit, nil)
	require.NoError(t, err)

	updated, err := e.Reapply(ctx, tx.ID, 30, domain.Debit, strPtr("corrected"))
	require.NoError(t, err)
	assert.Equal(t, 30.0, updated.Amount)
	assert.Equal(t, "corrected", *updated.Description)
	assert.Equal(t, 70.0, balanceOf(t, gdb, w.ID))

	var stored domain.Transaction
	require.NoError(t, gdb.First(&stored, tx.ID).Error)
	assert.Equal(t, 30.0, stored.Amount)
}

func TestReapplyChangesKind(t *testing.T) {
	ctx := context.Background()
	e, gdb, owner := newTestEngine(t)
	w := testutil.CreateWallet(t, gdb, owner.ID, 100)

	tx, err := e.Apply(ctx, w.ID, 40, domain.Debit, nil)
	require.NoError(t, err)

	_, err = e.Reapply(ctx, tx.ID, 40, domain.Credit, nil)
	require.NoError(t, err)
	assert.Equal(t, 140.0, balanceOf(t, gdb, w.ID))
}

func TestReapplyInsufficientAfterReversal(t *testing.T) {
	ctx := context.Background()
	e, gdb, owner := newTestEngine(t)
	w := testutil.CreateWallet(t, gdb, owner.ID, 50)

	tx, err := e.Apply(ctx, w.ID, 40, domain.Debit, strPtr("initial"))
	require.NoError(t, err)

	_, err = e.Reapply(ctx, tx.ID, 60, domain.Debit, strPtr("updated"))
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.Equal(t, 10.0, balanceOf(t, gdb, w.ID))
	var stored domain.Transaction
	require.NoError(t, gdb.First(&stored, tx.ID).Error)
	assert.Equal(t, 40.0, stored.Amount)
	assert.Equal(t, "initial", *stored.Description)
}

func TestReapplyNotFound(t *testing.T) {
	e, _, _ := newTestEngine(t)

	_, err := e.Reapply(context.Background(), 12345, 10, domain.Credit, nil)

	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Transaction not found", appErr.Detail)
}

func TestReverseRestoresBalance(t *testing.T) {
	ctx := context.Background()
	e, gdb, owner := newTestEngine(t)
	w := testutil.CreateWallet(t, gdb, owner.ID, 80)

	debit, err := e.Apply(ctx, w.ID, 30, domain.Debit, nil)
	require.NoError(t, err)
	credit, err := e.Apply(ctx, w.ID, 5, domain.Credit, nil)
	require.NoError(t, err)

	wallet, err := e.Reverse(ctx, debit.ID)
	require.NoError(t, err)
	assert.Equal(t, 85.0, wallet.Balance)

	_, err = e.Reverse(ctx, credit.ID)
	require.NoError(t, err)
	assert.Equal(t, 80.0, balanceOf(t, gdb, w.ID))
	assert.Zero(t, countEntries(t, gdb, w.ID))

	_, err = e.Reverse(ctx, debit.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReverseCreditCannotOverdraw(t *testing.T) {
	ctx := context.Background()
	e, gdb, owner := newTestEngine(t)
	w := testutil.CreateWallet(t, gdb, owner.ID, 0)

	credit, err := e.Apply(ctx, w.ID, 100, domain.Credit, nil)
	require.NoError(t, err)
	_, err = e.Apply(ctx, w.ID, 90, domain.Debit, nil)
	require.NoError(t, err)

	_, err = e.Reverse(ctx, credit.ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, 10.0, balanceOf(t, gdb, w.ID))
	assert.Equal(t, int64(2), countEntries(t, gdb, w.ID))
}

func TestOverride(t *testing.T) {
	ctx := context.Background()
	e, gdb, owner := newTestEngine(t)
	w := testutil.CreateWallet(t, gdb, owner.ID, 10)

	got, err := e.Override(ctx, w.ID, 250)
	require.NoError(t, err)
	assert.Equal(t, 250.0, got.Balance)
	assert.Equal(t, 250.0, balanceOf(t, gdb, w.ID))

	_, err = e.Override(ctx, w.ID, -1)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = e.Override(ctx, 999, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	e, gdb, owner := newSharedEngine(t)
	w := testutil.CreateWallet(t, gdb, owner.ID, 100)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Apply(ctx, w.ID, 20, domain.Debit, nil)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 0.0, balanceOf(t, gdb, w.ID))
	assert.Equal(t, int64(5), countEntries(t, gdb, w.ID))
}

func TestConcurrentReverseOfSameEntry(t *testing.T) {
	ctx := context.Background()
	e, gdb, owner := newSharedEngine(t)
	w := testutil.CreateWallet(t, gdb, owner.ID, 100)
	entry, err := e.Apply(ctx, w.ID, 30, domain.Debit, nil)
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		reversed int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Reverse(ctx, entry.ID)
			if err == nil {
				mu.Lock()
				reversed++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrNotFound)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, reversed)
	assert.Equal(t, 100.0, balanceOf(t, gdb, w.ID), "debit must be refunded exactly once")
	assert.Zero(t, countEntries(t, gdb, w.ID))
}

func TestConcurrentReapplyAndReverseOfSameEntry(t *testing.T) {
	ctx := context.Background()
	e, gdb, owner := newSharedEngine(t)

	for i := 0; i < 10; i++ {
		w := testutil.CreateWallet(t, gdb, owner.ID, 100)
		entry, err := e.Apply(ctx, w.ID, 30, domain.Debit, nil)
		require.NoError(t, err)

		var wg sync.WaitGroup
		var reapplyErr, reverseErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, reapplyErr = e.Reapply(ctx, entry.ID, 50, domain.Debit, nil)
		}()
		go func() {
			defer wg.Done()
			_, reverseErr = e.Reverse(ctx, entry.ID)
		}()
		wg.Wait()

		require.NoError(t, reverseErr)
		if reapplyErr != nil {
			assert.ErrorIs(t, reapplyErr, domain.ErrNotFound)
		}
		// whichever ran first, the entry is gone and its effect with it
		assert.Zero(t, countEntries(t, gdb, w.ID))
		assert.Equal(t, 100.0, balanceOf(t, gdb, w.ID))
	}
}

func TestReverseTwiceRefundsOnce(t *testing.T) {
	ctx := context.Background()
	e, gdb, owner := newTestEngine(t)
	w := testutil.CreateWallet(t, gdb, owner.ID, 100)
	entry, err := e.Apply(ctx, w.ID, 40, domain.Debit, nil)
	require.NoError(t, err)

	_, err = e.Reverse(ctx, entry.ID)
	require.NoError(t, err)
	_, err = e.Reverse(ctx, entry.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 100.0, balanceOf(t, gdb, w.ID))
}

func TestReapplyAfterReverseKeepsEntryDeleted(t *testing.T) {
	ctx := context.Background()
	e, gdb, owner := newTestEngine(t)
	w := testutil.CreateWallet(t, gdb, owner.ID, 100)
	entry, err := e.Apply(ctx, w.ID, 40, domain.Debit, nil)
	require.NoError(t, err)
	_, err = e.Reverse(ctx, entry.ID)
	require.NoError(t, err)

	_, err = e.Reapply(ctx, entry.ID, 10, domain.Credit, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, countEntries(t, gdb, w.ID))
	assert.Equal(t, 100.0, balanceOf(t, gdb, w.ID))
}

func TestEntryWritesNeverInsert(t *testing.T) {
	_, gdb, owner := newTestEngine(t)
	w := testutil.CreateWallet(t, gdb, owner.ID, 100)
	gone := &domain.Transaction{ID: 999, WalletID: w.ID, Amount: 5, Type: domain.Credit}

	assert.ErrorIs(t, updateEntry(gdb, gone), domain.ErrNotFound)
	assert.ErrorIs(t, removeEntry(gdb, gone), domain.ErrNotFound)
	assert.Zero(t, countEntries(t, gdb, w.ID))
}

func TestVersionBumpBetweenReadAndWriteIsRetried(t *testing.T) {
	ctx := context.Background()
	e, gdb, owner := newTestEngine(t)
	w := testutil.CreateWallet(t, gdb, owner.ID, 100)

	writes := 0
	e.beforeWrite = func(tx *gorm.DB, locked *domain.Wallet) {
		writes++
		if writes == 1 {
			// stands in for a writer that committed after our read
			require.NoError(t, tx.Model(&domain.Wallet{}).Where("id = ?", locked.ID).
				Update("version", gorm.Expr("version + 1")).Error)
		}
	}

	_, err := e.Apply(ctx, w.ID, 20, domain.Debit, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, writes, "stale write must be retried")
	assert.Equal(t, 80.0, balanceOf(t, gdb, w.ID))
	assert.Equal(t, int64(1), countEntries(t, gdb, w.ID))
}

func TestCreditOverflowIsRejected(t *testing.T) {
	ctx := context.Background()
	e, gdb, owner := newTestEngine(t)
	w := testutil.CreateWallet(t, gdb, owner.ID, 0)

	_, err := e.Apply(ctx, w.ID, 1.7e308, domain.Credit, nil)
	require.NoError(t, err)
	_, err = e.Apply(ctx, w.ID, 1.7e308, domain.Credit, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 1.7e308, balanceOf(t, gdb, w.ID))
	assert.Equal(t, int64(1), countEntries(t, gdb, w.ID))

	// the wallet stays usable
	_, err = e.Apply(ctx, w.ID, 1, domain.Debit, nil)
	assert.NoError(t, err)

	for _, amount := range []float64{math.Inf(1), math.NaN()} {
		_, err = e.Apply(ctx, w.ID, amount, domain.Credit, nil)
		assert.ErrorIs(t, err, domain.ErrValidation)
	}
	_, err = e.Override(ctx, w.ID, math.Inf(1))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNonFiniteStoredBalanceIsRejected(t *testing.T) {
	ctx := context.Background()
	e, gdb, owner := newTestEngine(t)
	w := testutil.CreateWallet(t, gdb, owner.ID, 10)
	entry, err := e.Apply(ctx, w.ID, 5, domain.Credit, nil)
	require.NoError(t, err)
	require.NoError(t, gdb.Model(&domain.Wallet{}).Where("id = ?", w.ID).Update("balance", math.Inf(1)).Error)

	assert.NotPanics(t, func() {
		_, err = e.Apply(ctx, w.ID, 1, domain.Debit, nil)
		assert.ErrorIs(t, err, domain.ErrValidation)
		_, err = e.Reapply(ctx, entry.ID, 1, domain.Debit, nil)
		assert.ErrorIs(t, err, domain.ErrValidation)
		_, err = e.Reverse(ctx, entry.ID)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	// an administrator can repair it
	repaired, err := e.Override(ctx, w.ID, 15)
	require.NoError(t, err)
	assert.Equal(t, 15.0, repaired.Balance)
}

func TestCancelledContextLeavesStateUntouched(t *testing.T) {
	e, gdb, owner := newTestEngine(t)
	w := testutil.CreateWallet(t, gdb, owner.ID, 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Apply(ctx, w.ID, 10, domain.Debit, nil)
	assert.Error(t, err)
	assert.Equal(t, 100.0, balanceOf(t, gdb, w.ID))
	assert.Zero(t, countEntries(t, gdb, w.ID))
}

func TestWriteBalanceDetectsStaleVersion(t *testing.T) {
	_, gdb, owner := newTestEngine(t)
	w := testutil.CreateWallet(t, gdb, owner.ID, 100)

	stale := *w
	require.NoError(t, writeBalance(gdb, w, decimal.NewFromInt(90)))
	assert.Equal(t, int64(1), w.Version)

	err := writeBalance(gdb, &stale, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, errStaleWallet)
	assert.Equal(t, 90.0, balanceOf(t, gdb, w.ID))
}

func TestRunRetriesStaleWallet(t *testing.T) {
	e, _, _ := newTestEngine(t)

	attempts := 0
	err := e.run(context.Background(), "test", func(*gorm.DB) error {
		attempts++
		if attempts < 3 {
			return errStaleWallet
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	attempts = 0
	err = e.run(context.Background(), "test", func(*gorm.DB) error {
		attempts++
		return errStaleWallet
	})
	assert.True(t, errors.Is(err, errStaleWallet))
	assert.Equal(t, DefaultMaxAttempts, attempts)
}
