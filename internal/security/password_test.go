package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndCheck(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("pwd1")
	require.NoError(t, err)

	assert.NotEqual(t, "pwd1", hash)
	assert.NoError(t, h.Check(hash, "pwd1"))
	assert.ErrorIs(t, h.Check(hash, "pwd2"), ErrPasswordMismatch)
}

func TestPasswordHasher_Salted(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestNewPasswordHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(99).cost)
}

func TestCheck_GarbageHash(t *testing.T) {
	err := NewPasswordHasher(bcrypt.MinCost).Check("not-a-hash", "pwd")

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrPasswordMismatch)
}

func TestHash_RejectsOverlongPasswordByBytes(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	// 40 characters, 80 bytes
	_, err := h.Hash(strings.Repeat("é", 40))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = h.Hash(strings.Repeat("a", MaxPasswordBytes))
	assert.NoError(t, err)
}
