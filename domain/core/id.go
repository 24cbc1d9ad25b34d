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

// ResultID identifies a single fit invocation.
type ResultID ID

func (id ResultID) String() string { return ID(id).String() }

// NewResultID creates a time-ordered fit result identifier
func NewResultID() ResultID {
	return ResultID(NewID())
}

// ParseResultID parses a string into ResultID
func ParseResultID(s string) (ResultID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("result ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("result ID %q is not a UUID: %w", s, err)
	}
	return ResultID(s), nil
}
