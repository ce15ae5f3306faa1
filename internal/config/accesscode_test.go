package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccessCodeConfig() *AccessCodeConfig {
	// Minimum cost keeps the bcrypt tests fast.
	return &AccessCodeConfig{BcryptCost: 10}
}

func TestNewAccessCodeConfig_Defaults(t *testing.T) {
	t.Setenv("BCRYPT_COST", "")
	t.Setenv("ACCESS_CODE_PEPPER", "")

	cfg, err := NewAccessCodeConfig()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Empty(t, cfg.Pepper)
}

func TestNewAccessCodeConfig_CostOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		cost string
	}{
		{name: "too low", cost: "4"},
		{name: "too high", cost: "20"},
		{name: "non-numeric", cost: "high"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BCRYPT_COST", tt.cost)

			cfg, err := NewAccessCodeConfig()
			require.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestGenerateAccessCode_Shape(t *testing.T) {
	code, err := GenerateAccessCode()
	require.NoError(t, err)

	assert.Len(t, code, accessCodeLength+1)
	parts := strings.Split(code, "-")
	require.Len(t, parts, 2)
	for _, part := range parts {
		assert.Len(t, part, accessCodeLength/2)
		for _, r := range part {
			assert.Contains(t, accessCodeAlphabet, string(r))
		}
	}
}

func TestGenerateAccessCode_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateAccessCode()
		require.NoError(t, err)
		assert.False(t, seen[code], "generated a duplicate access code: %s", code)
		seen[code] = true
	}
}

func TestHashAndVerifyAccessCode(t *testing.T) {
	cfg := testAccessCodeConfig()

	code, err := GenerateAccessCode()
	require.NoError(t, err)

	hash, err := cfg.HashAccessCode(code)
	require.NoError(t, err)
	assert.NotEqual(t, code, hash)

	assert.True(t, cfg.VerifyAccessCode(code, hash))
	assert.False(t, cfg.VerifyAccessCode("WRNG-CODE", hash))
}

func TestVerifyAccessCode_ForgivingInput(t *testing.T) {
	cfg := testAccessCodeConfig()

	hash, err := cfg.HashAccessCode("ABCD-EF23")
	require.NoError(t, err)

	// Case and separators should not matter to candidates typing the code.
	assert.True(t, cfg.VerifyAccessCode("abcd-ef23", hash))
	assert.True(t, cfg.VerifyAccessCode("ABCDEF23", hash))
	assert.True(t, cfg.VerifyAccessCode("  abcd ef23  ", hash))
}

func TestVerifyAccessCode_PepperMismatch(t *testing.T) {
	peppered := &AccessCodeConfig{BcryptCost: 10, Pepper: "extra"}
	plain := testAccessCodeConfig()

	hash, err := peppered.HashAccessCode("ABCD-EF23")
	require.NoError(t, err)

	assert.True(t, peppered.VerifyAccessCode("ABCD-EF23", hash))
	assert.False(t, plain.VerifyAccessCode("ABCD-EF23", hash))
}
