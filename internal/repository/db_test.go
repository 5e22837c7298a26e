package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"crypto_invest/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapErr(t *testing.T) {
	t.Run("unique violation is a conflict", func(t *testing.T) {
		err := wrapErr(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("numeric overflow is a validation error", func(t *testing.T) {
		err := wrapErr(fmt.Errorf("insert investment: %w", &pgconn.PgError{Code: "22003"}))
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "amount", ve.Field)
	})

	t.Run("check violation names the column", func(t *testing.T) {
		err := wrapErr(&pgconn.PgError{Code: "23514", TableName: "withdrawals", ConstraintName: "withdrawals_amount_check"})
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "amount", ve.Field)
	})

	t.Run("deadline is unavailable", func(t *testing.T) {
		assert.ErrorIs(t, wrapErr(context.DeadlineExceeded), domain.ErrUnavailable)
	})

	t.Run("domain errors pass through", func(t *testing.T) {
		err := domain.NotFound("deposit")
		assert.Same(t, err, wrapErr(err))
	})

	t.Run("other errors are untouched", func(t *testing.T) {
		boom := errors.New("boom")
		assert.Equal(t, boom, wrapErr(boom))
	})
}
