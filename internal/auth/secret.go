// Package auth holds the shared-secret helpers for the reserved privileged
// identity. The configured secret is stored as a bcrypt hash, never in
// plaintext.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost of 10 balances hardness against registration latency.
const bcryptCost = 10

// HashSecret generates a bcrypt hash suitable for the
// reserved_secret_hash config key.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}

// CompareSecret checks a plaintext secret against its stored hash.
func CompareSecret(hash, secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
}
