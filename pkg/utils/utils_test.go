package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	ok, err := VerifyPassword("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordSalted(t *testing.T) {
	first, err := HashPassword("secret123")
	require.NoError(t, err)
	second, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestVerifyPasswordRejectsBadFormat(t *testing.T) {
	for _, stored := range []string{"", "plaintext", "$bcrypt$whatever", "$argon2id$v=19$"} {
		_, err := VerifyPassword("secret123", stored)
		assert.Error(t, err, "stored %q", stored)
	}
}

func TestValidateUsername(t *testing.T) {
	for _, username := range []string{"alice", "Bob_99", "x1_", "abc", strings.Repeat("a", 20)} {
		assert.NoError(t, ValidateUsername(username), username)
	}

	for _, username := range []string{"ab", strings.Repeat("a", 21), "has space", "dots.are.bad", "_leading", "émile"} {
		assert.Error(t, ValidateUsername(username), username)
	}
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "alice", NormalizeUsername("  alice  "))
	assert.Equal(t, "", NormalizeUsername("   "))
}
