package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// GenerateRequestID generates a unique request ID (16 hex characters)
func GenerateRequestID() string {
	return generateHex(8)
}

// GenerateCorrelationID generates a UUID for correlation tracking
func GenerateCorrelationID() string {
	return uuid.New().String()
}

// GenerateArtifactID generates a UUID for stored artifacts
func GenerateArtifactID() string {
	return uuid.New().String()
}

// GenerateStreamID generates an identifier for one streaming session
func GenerateStreamID() string {
	return fmt.Sprintf("stream_%s", generateHex(12))
}

// generateHex generates a random hex string of the specified byte length
func generateHex(byteLength int) string {
	bytes := make([]byte, byteLength)
	if _, err := rand.Read(bytes); err != nil {
		// crypto/rand failure is unrecoverable for ID generation
		panic(fmt.Sprintf("failed to read random bytes: %v", err))
	}
	return hex.EncodeToString(bytes)
}
