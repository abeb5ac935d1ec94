package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	// SessionID identifies one upload-to-teardown analysis session.
	SessionID ID

	// SampleID links a metadata row to a distance-matrix row/column.
	// Sample IDs come from uploaded files, not from UUID generation.
	SampleID string

	// VariableKey names a metadata column.
	VariableKey string
)

// String conversions for domain IDs
func (id SessionID) String() string  { return ID(id).String() }
func (id SampleID) String() string   { return string(id) }
func (k VariableKey) String() string { return string(k) }

// NewSessionID creates a fresh session identifier
func NewSessionID() SessionID {
	return SessionID(NewID())
}

// ParseSessionID parses a string into SessionID
func ParseSessionID(s string) (SessionID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("session ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("malformed session ID %q: %w", s, err)
	}
	return SessionID(s), nil
}

// NewSampleID trims surrounding whitespace, matching file ingestion rules
func NewSampleID(s string) SampleID {
	return SampleID(strings.TrimSpace(s))
}

// ParseVariableKey parses a string into VariableKey
func ParseVariableKey(s string) (VariableKey, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("variable key cannot be empty")
	}
	return VariableKey(s), nil
}
