package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	apiKeyBytes   = 20 // 40 hex characters
	passwordBytes = 5  // 10 hex characters
)

// GenerateAPIKey creates a random opaque API key.
func GenerateAPIKey() (string, error) {
	return randomHex(apiKeyBytes)
}

// GeneratePassword creates the random password handed out at signup.
func GeneratePassword() (string, error) {
	return randomHex(passwordBytes)
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
