package apperror_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bibbank/lenderledger/internal/domain/apperror"
)

func TestKindOf(t *testing.T) {
	base := apperror.NotFound("loan", "loan-1")
	wrapped := fmt.Errorf("find loan: %w", base)

	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(wrapped))
	assert.Equal(t, apperror.Kind(""), apperror.KindOf(errors.New("plain")))
	assert.Equal(t, "loan loan-1 not found", apperror.MessageOf(wrapped))
	assert.Equal(t, "find loan: loan loan-1 not found", wrapped.Error())
}

func TestErrorsIs(t *testing.T) {
	err := fmt.Errorf("amortize: %w", apperror.New(apperror.KindMissingRate, "loan has no interest rate"))

	assert.True(t, errors.Is(err, apperror.ErrMissingRate))
	assert.False(t, errors.Is(err, apperror.ErrNotFound))
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := apperror.Wrap(apperror.KindPersistence, cause, "commit unit of work")

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, apperror.ErrPersistence)
	assert.Equal(t, "commit unit of work: connection reset", err.Error())
}
