// Package config provides access code generation and hashing functionality.
package config

import (
	"crypto/rand"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// accessCodeAlphabet omits easily confused characters (0/O, 1/I). Its length
// divides 256, so byte-mod mapping introduces no bias.
const accessCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const accessCodeLength = 8

// AccessCodeConfig holds configuration for access code hashing and
// verification.
type AccessCodeConfig struct {
	BcryptCost int
	Pepper     string // optional global secret for additional security
}

// NewAccessCodeConfig creates a new access code configuration from environment
// variables. It reads BCRYPT_COST (default: 12) and optionally
// ACCESS_CODE_PEPPER.
func NewAccessCodeConfig() (*AccessCodeConfig, error) {
	costStr := os.Getenv("BCRYPT_COST")
	if costStr == "" {
		costStr = "12" // default
	}

	cost, err := strconv.Atoi(costStr)
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %v", err)
	}

	config := &AccessCodeConfig{
		BcryptCost: cost,
		Pepper:     os.Getenv("ACCESS_CODE_PEPPER"), // empty if not set
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return config, nil
}

// normalize validates the configuration.
func (c *AccessCodeConfig) normalize() error {
	if c.BcryptCost < 10 || c.BcryptCost > 14 {
		return fmt.Errorf("bcrypt cost out of range: %d (must be 10-14)", c.BcryptCost)
	}
	return nil
}

// GenerateAccessCode returns a fresh one-time code in the form XXXX-XXXX.
func GenerateAccessCode() (string, error) {
	buf := make([]byte, accessCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate access code: %w", err)
	}

	code := make([]byte, 0, accessCodeLength+1)
	for i, b := range buf {
		if i == accessCodeLength/2 {
			code = append(code, '-')
		}
		code = append(code, accessCodeAlphabet[int(b)%len(accessCodeAlphabet)])
	}
	return string(code), nil
}

// normalizeAccessCode makes verification forgiving about case and separators.
func normalizeAccessCode(code string) string {
	cleaned := strings.ToUpper(strings.TrimSpace(code))
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	return cleaned
}

// HashAccessCode hashes an access code using bcrypt (with optional pepper).
func (c *AccessCodeConfig) HashAccessCode(code string) (string, error) {
	material := normalizeAccessCode(code)
	if c.Pepper != "" {
		material += c.Pepper
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(material), c.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash access code: %w", err)
	}

	return string(hash), nil
}

// VerifyAccessCode verifies an access code against a stored hash (with
// optional pepper).
func (c *AccessCodeConfig) VerifyAccessCode(code, storedHash string) bool {
	material := normalizeAccessCode(code)
	if c.Pepper != "" {
		material += c.Pepper
	}

	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(material))
	return err == nil
}
