package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	plain := "correct horse battery staple"

	hash, err := HashPassword(plain)
	require.NoError(t, err)
	assert.NotEqual(t, plain, hash)

	assert.True(t, CheckPasswordHash(plain, hash))
	assert.False(t, CheckPasswordHash("wrong password", hash))
}

func TestHashPassword_TooLong(t *testing.T) {
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	_, err := HashPassword(string(long))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestCheckPasswordHash_EmptyHash(t *testing.T) {
	// Google-only accounts have no stored hash; comparison must fail, not panic.
	assert.False(t, CheckPasswordHash("anything", ""))
}
