package utils

import (
	"github.com/google/uuid"
)

// GenerateUUID returns a new random identifier for attempt records and
// transport correlation IDs.
func GenerateUUID() string {
	return uuid.New().String()
}

// TruncateString limits s to max characters, appending an ellipsis when
// cut (SMS bodies are length constrained).
func TruncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
