package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hashed, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.True(t, ValidHash(hashed))
	assert.True(t, CheckPassword("hunter2", hashed))
	assert.False(t, CheckPassword("hunter3", hashed))

	_, err = HashPassword("")
	assert.ErrorIs(t, err, ErrPasswordLength)
	_, err = HashPassword(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrPasswordLength)

	assert.False(t, ValidHash("plaintext"))
}
