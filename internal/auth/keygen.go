// Package auth provides authentication utilities for API keys.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

// Key format: bf_{env}_{prefix}_{secret}
// Example: bf_live_9c2f1a_7d4e2b1f9c8a5e3d2b1f9c8a5e3d2b1f
const (
	KeyPrefixLen = 6  // Visible prefix length (hex encoded 3 bytes)
	KeySecretLen = 32 // Secret length (hex encoded 16 bytes)
)

// Environment indicators for key prefix.
const (
	EnvLive = "live"
	EnvTest = "test"
)

var (
	// ErrInvalidKeyFormat indicates the key format is invalid.
	ErrInvalidKeyFormat = errors.New("invalid API key format")

	keyFormatRegex = regexp.MustCompile(`^bf_(live|test)_([a-f0-9]{6})_([a-f0-9]{32})$`)
)

// GeneratedKey contains the parts of a newly generated API key.
type GeneratedKey struct {
	Plaintext string // Full key (show once only)
	Hash      string // Argon2id hash for storage
	Prefix    string // 6-char visible prefix, the lookup key
}

// GenerateAPIKey creates a new API key with the specified environment.
// Returns the plaintext key (to show once), hash (to store), and prefix
// (for lookup).
func GenerateAPIKey(env string) (*GeneratedKey, error) {
	if env != EnvLive && env != EnvTest {
		env = EnvLive
	}

	prefixBytes := make([]byte, 3)
	if _, err := rand.Read(prefixBytes); err != nil {
		return nil, fmt.Errorf("generate prefix: %w", err)
	}
	prefix := hex.EncodeToString(prefixBytes)

	secretBytes := make([]byte, 16)
	if _, err := rand.Read(secretBytes); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	secret := hex.EncodeToString(secretBytes)

	plaintext := fmt.Sprintf("bf_%s_%s_%s", env, prefix, secret)

	hash, err := HashKey(plaintext)
	if err != nil {
		return nil, fmt.Errorf("hash key: %w", err)
	}

	return &GeneratedKey{
		Plaintext: plaintext,
		Hash:      hash,
		Prefix:    prefix,
	}, nil
}

// ParsedKey contains the parsed parts of an API key.
type ParsedKey struct {
	Env    string
	Prefix string
	Secret string
}

// ParseAPIKey extracts the components from a plaintext API key.
// Returns an error if the format is invalid.
func ParseAPIKey(key string) (*ParsedKey, error) {
	matches := keyFormatRegex.FindStringSubmatch(key)
	if matches == nil {
		return nil, ErrInvalidKeyFormat
	}

	return &ParsedKey{
		Env:    matches[1],
		Prefix: matches[2],
		Secret: matches[3],
	}, nil
}

// ValidateKeyFormat checks if the key matches the expected format.
func ValidateKeyFormat(key string) bool {
	return keyFormatRegex.MatchString(key)
}
