package credentials

import (
	"strings"

	"github.com/google/uuid"
)

// APIKeyPrefix tags API keys so they are distinguishable from session
// tokens at a glance. The material after the prefix is opaque.
const APIKeyPrefix = "sk-"

// GenerateAPIKey returns a new API key in the format "sk-<random>".
func GenerateAPIKey() string {
	return APIKeyPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// IsAPIKey reports whether the raw token looks like an API key.
func IsAPIKey(raw string) bool {
	return strings.HasPrefix(raw, APIKeyPrefix)
}
