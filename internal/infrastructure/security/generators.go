// Package security provides id generation and admin token utilities
package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// SessionPrefix marks reader session identifiers issued by the server.
const SessionPrefix = "session_"

// GenerateULID generates a new ULID string.
func GenerateULID() string {
	return ulid.Make().String()
}

// NewSessionID returns a fresh anonymous reader session identifier.
func NewSessionID() string {
	return SessionPrefix + uuid.NewString()
}

// GenerateSecureKey creates a cryptographically secure random key and returns it as a hex string.
// Used when no JWT secret is configured.
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length/2) // Each byte becomes two hex characters
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
