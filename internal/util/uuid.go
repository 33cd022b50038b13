package util

import (
	"regexp"

	"github.com/google/uuid"
)

// uuidRegex is a compiled regular expression for validating UUID format.
var uuidRegex = regexp.MustCompile(`^[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}$`)

// IsValidUUID checks if a string is in the 8-4-4-4-12 hexadecimal format.
func IsValidUUID(s string) bool {
	return uuidRegex.MatchString(s)
}

// NewConversationID returns a fresh identifier for a single call URL request.
func NewConversationID() string {
	return uuid.NewString()
}

const abbreviatedUUIDPrefixLength = 8

// AbbreviateUUID returns a shortened representation of a UUID suitable for text output.
// When the value is not a UUID, the original value is returned unchanged.
func AbbreviateUUID(id string) string {
	if !IsValidUUID(id) {
		return id
	}
	return id[:abbreviatedUUIDPrefixLength] + "…"
}
