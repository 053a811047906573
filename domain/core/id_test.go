package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	if !ID("").IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}
	if ID("not-empty").IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseTableID tests table ID parsing
func TestParseTableID(t *testing.T) {
	valid := NewTableID().String()

	tests := []struct {
		input    string
		hasError bool
	}{
		{valid, false},
		{"", true},
		{"   ", true},
		{"not-a-uuid", true},
	}

	for _, tt := range tests {
		result, err := ParseTableID(tt.input)
		if tt.hasError {
			if err == nil {
				t.Errorf("ParseTableID(%q) expected error, got nil", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTableID(%q) unexpected error: %v", tt.input, err)
		}
		if result.String() != tt.input {
			t.Errorf("ParseTableID(%q) = %q", tt.input, result)
		}
	}
}

func TestHashFieldsSeparatesBoundaries(t *testing.T) {
	if HashFields("ab", "c") == HashFields("a", "bc") {
		t.Error("Expected field boundaries to change the hash")
	}
	if HashFields("a", "b") != HashFields("a", "b") {
		t.Error("Expected hashing to be deterministic")
	}
	if len(HashFields("x").Short()) != 12 {
		t.Error("Expected Short() to return 12 characters")
	}
}

func TestErrorHelpers(t *testing.T) {
	err := NewInsufficientPairingError("0", "7")
	if !IsInsufficientPairing(err) || !IsRecoverable(err) {
		t.Errorf("Expected insufficient pairing to be recoverable, got %v", err)
	}
	if IsRecoverable(NewSchemaError("bad")) {
		t.Error("Expected schema errors to be fatal")
	}
	if !IsSchemaMismatch(NewSchemaMismatchError("x")) {
		t.Error("Expected schema mismatch helper to match")
	}
}
