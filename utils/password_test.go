package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("passw0rd1")
	require.NoError(t, err)
	require.NotEqual(t, "passw0rd1", hash)

	assert.True(t, CheckPassword(hash, "passw0rd1"))
	assert.False(t, CheckPassword(hash, "passw0rd2"))
	assert.False(t, CheckPassword("", "passw0rd1"))
}

func TestValidatePasswordStrength(t *testing.T) {
	cases := []struct {
		name     string
		password string
		ok       bool
	}{
		{"valid", "passw0rd1", true},
		{"valid unicode", "pässw0rd", true},
		{"exactly eight", "abcdefg1", true},
		{"too short", "abc1234", false},
		{"letters only", "abcdefgh", false},
		{"digits only", "12345678", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePasswordStrength(tc.password)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
