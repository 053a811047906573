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

// Domain-specific ID types
type (
	TableID ID
	FacetID ID
)

func (id TableID) String() string { return ID(id).String() }
func (id FacetID) String() string { return ID(id).String() }

// NewTableID creates an identifier for a stats table
func NewTableID() TableID {
	return TableID(NewID())
}

// ParseTableID parses a string into TableID
func ParseTableID(s string) (TableID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("table ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("table ID %q is not a UUID: %w", s, err)
	}
	return TableID(s), nil
}
