package auth

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// GenerateSecret returns a new random client secret.
func GenerateSecret() string {
	return rand.Text()
}

// HashSecret returns the bcrypt hash stored as a client's key_hash.
func HashSecret(secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("secret must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hash), nil
}
