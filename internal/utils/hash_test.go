package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPassword      = "SecurePassword123!"
	testWrongPassword = "WrongPassword456!"
)

// cheap parameters keep the suite fast; production uses DefaultHashParams
var testParams = HashParams{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHashPassword_Format(t *testing.T) {
	hash, err := HashPassword(testPassword)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$"), hash)
	assert.NotContains(t, hash, testPassword)
}

func TestVerifyPassword_Correct(t *testing.T) {
	hash, err := HashPasswordWith(testPassword, testParams)
	require.NoError(t, err, "Setup: HashPasswordWith should not fail")

	match, err := VerifyPassword(testPassword, hash)

	require.NoError(t, err)
	assert.True(t, match)
}

func TestVerifyPassword_UsesParamsFromHash(t *testing.T) {
	hash, err := HashPasswordWith(testPassword, testParams)
	require.NoError(t, err)
	assert.Contains(t, hash, "m=8192,t=1,p=1")

	match, err := VerifyPassword(testPassword, hash)
	require.NoError(t, err)
	assert.True(t, match)
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	hash1, err1 := HashPasswordWith(testPassword, testParams)
	hash2, err2 := HashPasswordWith(testPassword, testParams)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.NotEqual(t, hash1, hash2, "Same password should produce different hashes due to unique salt")
}

func TestVerifyPassword_TableDriven(t *testing.T) {
	testCases := []struct {
		name        string
		password    string
		testPass    string
		expectMatch bool
	}{
		{"correct_password", testPassword, testPassword, true},
		{"incorrect_password", testPassword, testWrongPassword, false},
		{"empty_password", "", "", true},
		{"case_sensitive", "Password123", "password123", false},
		{"whitespace_matters", "Password123 ", "Password123", false},
		{"unicode_password", "Lozinka_čćžšđ", "Lozinka_čćžšđ", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			hash, err := HashPasswordWith(tc.password, testParams)
			require.NoError(t, err)

			match, err := VerifyPassword(tc.testPass, hash)

			require.NoError(t, err)
			assert.Equal(t, tc.expectMatch, match)
		})
	}
}

func TestVerifyPassword_InvalidHashFormat(t *testing.T) {
	invalidHashes := []string{
		"",
		"plain-text-not-hash",
		"$invalid$format$",
		"$argon2id$v=19$m=65536",
		"$argon2id$v=19$m=65536$corrupted",
		"$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA",
	}

	for _, invalidHash := range invalidHashes {
		t.Run(invalidHash, func(t *testing.T) {
			match, err := VerifyPassword(testPassword, invalidHash)

			assert.ErrorIs(t, err, ErrInvalidHash)
			assert.False(t, match)
		})
	}
}

func TestVerifyPassword_WrongVersion(t *testing.T) {
	match, err := VerifyPassword(testPassword, "$argon2id$v=16$m=65536,t=1,p=4$c2FsdHNhbHRzYWx0$aGFzaA")

	assert.ErrorIs(t, err, ErrIncompatibleVersion)
	assert.False(t, match)
}

func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword(testPassword)
	}
}
