package memory

import "strings"

// NewStore creates a file-backed store when a directory is configured,
// otherwise in-memory.
func NewStore(dir, defaultTimezone string) (Store, error) {
	if strings.TrimSpace(dir) == "" {
		return NewInMemoryStore(defaultTimezone), nil
	}
	return NewFileStore(dir, defaultTimezone)
}
