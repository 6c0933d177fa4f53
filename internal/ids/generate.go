package ids

import (
	"crypto/sha256"
	"encoding/base32"

	internalstrings "github.com/amonks/tasklist/internal/strings"
	"github.com/google/uuid"
)

// DefaultLength is the standard length for generated IDs.
const DefaultLength = 8

// Generate creates a deterministic, lowercase base32 ID derived from input.
func Generate(input string, length int) string {
	hash := sha256.Sum256([]byte(input))
	encoded := base32.StdEncoding.EncodeToString(hash[:])
	if length <= 0 {
		return ""
	}
	if length > len(encoded) {
		length = len(encoded)
	}
	return internalstrings.NormalizeLower(encoded[:length])
}

// New creates a random lowercase base32 ID seeded from a version 4 UUID.
func New(length int) string {
	seed := uuid.New()
	return Generate(seed.String(), length)
}
