package ledger

import (
	"math"
	"wallet_ledger/internal/domain"

	"github.com/shopspring/decimal"
)

// applyEffect returns balance after an entry of kind, refusing to go below zero
func applyEffect(balance, amount decimal.Decimal, kind domain.TransactionType) (decimal.Decimal, error) {
	switch kind {
	case domain.Debit:
		if balance.LessThan(amount) {
			return balance, domain.InsufficientFunds()
		}
		return balance.Sub(amount), nil
	case domain.Credit:
		next := balance.Add(amount)
		if next.IsNegative() {
			return balance, domain.InsufficientFunds()
		}
		return next, nil
	default:
		return balance, domain.Validation("type must be credit or debit")
	}
}

// reverseEffect undoes an entry: credits are subtracted back, debits added back
func reverseEffect(balance, amount decimal.Decimal, kind domain.TransactionType) decimal.Decimal {
	if kind == domain.Debit {
		return balance.Add(amount)
	}
	return balance.Sub(amount)
}

func validateEntry(amount float64, kind domain.TransactionType) error {
	if !kind.Valid() {
		return domain.Validation("type must be credit or debit")
	}
	if !finite(amount) {
		return domain.Validation("amount out of range")
	}
	if amount <= 0 {
		return domain.Validation("amount must be greater than zero")
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// decimalOf converts a stored balance, refusing values decimal cannot represent
func decimalOf(v float64) (decimal.Decimal, error) {
	if !finite(v) {
		return decimal.Zero, domain.Validation("balance out of range")
	}
	return decimal.NewFromFloat(v), nil
}
