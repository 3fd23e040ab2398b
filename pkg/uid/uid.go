package uid

import (
	"strings"

	"github.com/google/uuid"
)

// New generates a random UUID string.
func New() string {
	return uuid.New().String()
}

// Token generates an opaque token with the dashes stripped.
func Token() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// IsValid reports whether id parses as a UUID, dashed or not.
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
