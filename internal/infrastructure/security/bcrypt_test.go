package security_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bibbank/lenderledger/internal/infrastructure/security"
)

func TestBcryptHasher(t *testing.T) {
	h := security.NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))

	t.Run("matching password", func(t *testing.T) {
		assert.NoError(t, h.Compare(hash, "s3cret-pass"))
	})

	t.Run("wrong password", func(t *testing.T) {
		assert.ErrorIs(t, h.Compare(hash, "wrong-pass"), security.ErrPasswordMismatch)
	})

	t.Run("malformed hash", func(t *testing.T) {
		err := h.Compare("not-a-hash", "s3cret-pass")
		require.Error(t, err)
		assert.NotErrorIs(t, err, security.ErrPasswordMismatch)
	})
}

func TestBcryptHasherCostFallback(t *testing.T) {
	hash, err := security.NewBcryptHasher(0).Hash("s3cret-pass")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestBcryptHasherRejectsLongPasswords(t *testing.T) {
	_, err := security.NewBcryptHasher(bcrypt.MinCost).Hash(strings.Repeat("x", 73))
	assert.Error(t, err)
}
