package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// ErrSchema marks a malformed or inconsistent distribution or stats table.
	ErrSchema = errors.New("schema error")
	// ErrInvalidComparison marks a comparison mode that the distribution tags do not allow.
	ErrInvalidComparison = errors.New("invalid comparison")
	// ErrUnsupportedExact marks an exact p-value request whose preconditions are unmet.
	ErrUnsupportedExact = errors.New("exact method unsupported")
	// ErrInsufficientPairing marks a group pair that shares no subjects.
	ErrInsufficientPairing = errors.New("insufficient pairing")
	// ErrSchemaMismatch marks collation of stats tables with different schemas.
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// Error constructors with context

func NewSchemaError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrSchema, fmt.Sprintf(format, args...))
}

func NewInvalidComparisonError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidComparison, fmt.Sprintf(format, args...))
}

func NewUnsupportedExactError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedExact, fmt.Sprintf(format, args...))
}

func NewInsufficientPairingError(groupA, groupB string) error {
	return fmt.Errorf("%w: groups %q and %q share no subjects", ErrInsufficientPairing, groupA, groupB)
}

func NewSchemaMismatchError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrSchemaMismatch, fmt.Sprintf(format, args...))
}

// Error checking helpers

func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}

func IsInvalidComparison(err error) bool {
	return errors.Is(err, ErrInvalidComparison)
}

func IsUnsupportedExact(err error) bool {
	return errors.Is(err, ErrUnsupportedExact)
}

func IsInsufficientPairing(err error) bool {
	return errors.Is(err, ErrInsufficientPairing)
}

func IsSchemaMismatch(err error) bool {
	return errors.Is(err, ErrSchemaMismatch)
}

// IsRecoverable reports whether err is a per-row degradation rather than a
// request-level failure. Only the caller's parameters decide whether it is
// actually recovered.
func IsRecoverable(err error) bool {
	return IsUnsupportedExact(err) || IsInsufficientPairing(err)
}
