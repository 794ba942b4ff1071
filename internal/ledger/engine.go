// Package ledger applies credit/debit entries to wallet balances.
//
// Every operation runs as one database transaction that locks the wallet row
// (SELECT ... FOR UPDATE where the driver supports it) and writes the new
// balance with a version check, so a balance and its transaction log never
// diverge and two concurrent debits cannot both pass the sufficiency check.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
	"wallet_ledger/internal/domain"
	"wallet_ledger/internal/metrics"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultMaxAttempts bounds retries after a lost version race
const DefaultMaxAttempts = 5

// errStaleWallet means another unit of work updated the wallet first
var errStaleWallet = errors.New("wallet updated concurrently")

// Engine is the only writer allowed to couple wallet and transaction mutations
type Engine struct {
	db          *gorm.DB
	log         logrus.FieldLogger
	maxAttempts int
	// beforeWrite runs between reading a wallet and writing its balance
	beforeWrite func(tx *gorm.DB, w *domain.Wallet)
}

// NewEngine creates a ledger engine over db
func NewEngine(db *gorm.DB, log logrus.FieldLogger) *Engine {
	return &Engine{db: db, log: log, maxAttempts: DefaultMaxAttempts}
}

// Apply records a new entry against walletID and adjusts its balance
func (e *Engine) Apply(ctx context.Context, walletID uint, amount float64, kind domain.TransactionType, description *string) (*domain.Transaction, error) {
	if err := validateEntry(amount, kind); err != nil {
		return nil, err
	}
	var created *domain.Transaction
	err := e.run(ctx, "apply", func(tx *gorm.DB) error {
		w, err := lockWallet(tx, walletID)
		if err != nil {
			return err
		}
		balance, err := decimalOf(w.Balance)
		if err != nil {
			return err
		}
		next, err := applyEffect(balance, decimal.NewFromFloat(amount), kind)
		if err != nil {
			return err
		}
		if err := e.store(tx, w, next); err != nil {
			return err
		}
		t := &domain.Transaction{WalletID: w.ID, Amount: amount, Type: kind, Description: description}
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		created = t
		return nil
	})
	e.logResult("apply", logrus.Fields{"wallet_id": walletID, "amount": amount, "type": kind}, err)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Reapply corrects an entry: its old effect is reversed before the new one is applied
func (e *Engine) Reapply(ctx context.Context, transactionID uint, amount float64, kind domain.TransactionType, description *string) (*domain.Transaction, error) {
	if err := validateEntry(amount, kind); err != nil {
		return nil, err
	}
	var updated *domain.Transaction
	err := e.run(ctx, "reapply", func(tx *gorm.DB) error {
		current, w, err := lockEntry(tx, transactionID)
		if err != nil {
			return err
		}
		balance, err := decimalOf(w.Balance)
		if err != nil {
			return err
		}
		reversed := reverseEffect(balance, decimal.NewFromFloat(current.Amount), current.Type)
		next, err := applyEffect(reversed, decimal.NewFromFloat(amount), kind)
		if err != nil {
			return err
		}
		if err := e.store(tx, w, next); err != nil {
			return err
		}
		current.Amount = amount
		current.Type = kind
		current.Description = description
		current.UpdatedAt = time.Now()
		if err := updateEntry(tx, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	e.logResult("reapply", logrus.Fields{"transaction_id": transactionID, "amount": amount, "type": kind}, err)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Reverse undoes an entry's effect on its wallet and deletes it
func (e *Engine) Reverse(ctx context.Context, transactionID uint) (*domain.Wallet, error) {
	var wallet *domain.Wallet
	err := e.run(ctx, "reverse", func(tx *gorm.DB) error {
		current, w, err := lockEntry(tx, transactionID)
		if err != nil {
			return err
		}
		balance, err := decimalOf(w.Balance)
		if err != nil {
			return err
		}
		next := reverseEffect(balance, decimal.NewFromFloat(current.Amount), current.Type)
		if next.IsNegative() {
			return domain.InsufficientFunds()
		}
		if err := e.store(tx, w, next); err != nil {
			return err
		}
		if err := removeEntry(tx, current); err != nil {
			return err
		}
		wallet = w
		return nil
	})
	e.logResult("reverse", logrus.Fields{"transaction_id": transactionID}, err)
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// Override overwrites a wallet balance outside the ledger. Administrative use only:
// the balance stops being the sum of its entries.
func (e *Engine) Override(ctx context.Context, walletID uint, balance float64) (*domain.Wallet, error) {
	if balance < 0 {
		return nil, domain.Validation("balance must not be negative")
	}
	if !finite(balance) {
		return nil, domain.Validation("balance out of range")
	}
	var wallet *domain.Wallet
	var previous float64
	err := e.run(ctx, "override", func(tx *gorm.DB) error {
		w, err := lockWallet(tx, walletID)
		if err != nil {
			return err
		}
		previous = w.Balance
		if err := e.store(tx, w, decimal.NewFromFloat(balance)); err != nil {
			return err
		}
		wallet = w
		return nil
	})
	if err == nil {
		e.log.WithFields(logrus.Fields{
			"wallet_id":        walletID,
			"previous_balance": previous,
			"balance":          balance,
		}).Warn("Administrative balance override")
		return wallet, nil
	}
	e.logResult("override", logrus.Fields{"wallet_id": walletID}, err)
	return nil, err
}

// run executes fn in a transaction, retrying when the wallet version moved underneath it
func (e *Engine) run(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		err = e.db.WithContext(ctx).Transaction(fn)
		if !errors.Is(err, errStaleWallet) {
			break
		}
		metrics.ObserveLedgerRetry()
	}
	metrics.ObserveLedger(op, outcome(err))
	if err != nil {
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return fmt.Errorf("ledger %s: %w", op, err)
	}
	return nil
}

func (e *Engine) logResult(op string, fields logrus.Fields, err error) {
	entry := e.log.WithFields(fields).WithField("op", op)
	var appErr *domain.AppError
	switch {
	case err == nil:
		entry.Info("Ledger operation committed")
	case errors.As(err, &appErr):
		entry.WithField("reason", appErr.Detail).Info("Ledger operation rejected")
	default:
		entry.WithError(err).Error("Ledger operation failed")
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

func lockWallet(tx *gorm.DB, walletID uint) (*domain.Wallet, error) {
	var w domain.Wallet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&w, walletID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("Wallet not found")
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// lockEntry locks the wallet owning transactionID, then the entry itself. The
// second read must lock too: a plain read under REPEATABLE READ returns the
// snapshot taken before the wallet lock was granted.
func lockEntry(tx *gorm.DB, transactionID uint) (*domain.Transaction, *domain.Wallet, error) {
	var first domain.Transaction
	if err := findEntry(tx, transactionID, &first); err != nil {
		return nil, nil, err
	}
	w, err := lockWallet(tx, first.WalletID)
	if err != nil {
		return nil, nil, err
	}
	var t domain.Transaction
	if err := findEntry(tx.Clauses(clause.Locking{Strength: "UPDATE"}), transactionID, &t); err != nil {
		return nil, nil, err // Removed while we waited for the wallet
	}
	return &t, w, nil
}

func findEntry(tx *gorm.DB, transactionID uint, t *domain.Transaction) error {
	err := tx.First(t, transactionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFound("Transaction not found")
	}
	return err
}

// updateEntry rewrites the mutable columns of t. Unlike Save it never inserts.
func updateEntry(tx *gorm.DB, t *domain.Transaction) error {
	res := tx.Model(t).
		Select("amount", "type", "description", "updated_at").
		Updates(map[string]any{
			"amount":      t.Amount,
			"type":        t.Type,
			"description": t.Description,
			"updated_at":  t.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("Transaction not found")
	}
	return nil
}

func removeEntry(tx *gorm.DB, t *domain.Transaction) error {
	res := tx.Delete(t)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return domain.NotFound("Transaction not found")
	}
	return nil
}

func (e *Engine) store(tx *gorm.DB, w *domain.Wallet, balance decimal.Decimal) error {
	if e.beforeWrite != nil {
		e.beforeWrite(tx, w)
	}
	return writeBalance(tx, w, balance)
}

// writeBalance stores balance only if nobody bumped the wallet version since it was read
func writeBalance(tx *gorm.DB, w *domain.Wallet, balance decimal.Decimal) error {
	value := balance.InexactFloat64()
	if !finite(value) {
		return domain.Validation("balance out of range")
	}
	res := tx.Model(&domain.Wallet{}).
		Where("id = ? AND version = ?", w.ID, w.Version).
		Updates(map[string]any{"balance": value, "version": w.Version + 1})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errStaleWallet
	}
	w.Balance = value
	w.Version++
	return nil
}
