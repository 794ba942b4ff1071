package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserRoleSet(t *testing.T) {
	u := User{Roles: "user, admin,,"}
	assert.Equal(t, []string{"user", "admin"}, u.RoleSet())

	empty := User{}
	assert.Empty(t, empty.RoleSet())
}

func TestTransactionTypeValid(t *testing.T) {
	assert.True(t, Credit.Valid())
	assert.True(t, Debit.Valid())
	assert.False(t, TransactionType("refund").Valid())
}

func TestAppErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("apply: %w", InsufficientFunds())

	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	var appErr *AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "Insufficient funds", appErr.Detail)

	assert.Equal(t, http.StatusNotFound, NotFound("Wallet not found").Status)
	assert.Equal(t, http.StatusConflict, Conflict("x").Status)
	assert.Equal(t, http.StatusUnprocessableEntity, Validation("x").Status)
	assert.ErrorIs(t, Forbidden("x"), ErrForbidden)
}
