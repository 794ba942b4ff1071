package ledger

import (
	"testing"
	"wallet_ledger/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestApplyEffect(t *testing.T) {
	d := decimal.NewFromFloat

	next, err := applyEffect(d(100), d(50), domain.Debit)
	assert.NoError(t, err)
	assert.True(t, next.Equal(d(50)))

	next, err = applyEffect(d(50), d(50), domain.Debit)
	assert.NoError(t, err)
	assert.True(t, next.IsZero())

	_, err = applyEffect(d(50), d(75), domain.Debit)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	next, err = applyEffect(d(1), d(2.5), domain.Credit)
	assert.NoError(t, err)
	assert.True(t, next.Equal(d(3.5)))

	_, err = applyEffect(d(-10), d(5), domain.Credit)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	_, err = applyEffect(d(1), d(1), domain.TransactionType("x"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReverseEffect(t *testing.T) {
	d := decimal.NewFromFloat

	assert.True(t, reverseEffect(d(50), d(50), domain.Debit).Equal(d(100)))
	assert.True(t, reverseEffect(d(150), d(50), domain.Credit).Equal(d(100)))
}
