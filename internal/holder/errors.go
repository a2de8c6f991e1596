package holder

import (
	"errors"
	"fmt"
)

// MutationError reports an invalid operation on a holder.
//
// Two conditions exist:
//   - Read-only mutation: writing to an Immutable, Frozen or Cache holder,
//     or through an Alias whose target is not writable.
//   - Invalid construction: a Latest holder built with no dependencies.
//
// Cycles through aliases are deliberately NOT errors; the alias reentrancy
// guard resolves them to the last-known-good value instead.
type MutationError struct {
	// Code identifies the error category.
	Code MutationErrorCode

	// Message is a human-readable description.
	Message string

	// Token identifies the affected holder, when one exists.
	Token string
}

// MutationErrorCode categorizes mutation errors.
type MutationErrorCode string

const (
	// ErrCodeReadOnly indicates a write to a holder that does not accept
	// external writes.
	ErrCodeReadOnly MutationErrorCode = "READ_ONLY"

	// ErrCodeNoDependencies indicates a Latest holder constructed with an
	// empty dependency list.
	ErrCodeNoDependencies MutationErrorCode = "NO_DEPENDENCIES"
)

// Error implements the error interface.
func (e *MutationError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%s: %s (holder=%s)", e.Code, e.Message, e.Token)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsReadOnly returns true if the error is a read-only mutation error.
// Uses errors.As to handle wrapped errors.
func IsReadOnly(err error) bool {
	var me *MutationError
	if errors.As(err, &me) {
		return me.Code == ErrCodeReadOnly
	}
	return false
}

// NewReadOnlyError creates a MutationError for a write to a read-only holder.
func NewReadOnlyError(token string) *MutationError {
	return &MutationError{
		Code:    ErrCodeReadOnly,
		Message: "holder does not accept external writes",
		Token:   token,
	}
}

// NewNoDependenciesError creates a MutationError for a Latest holder built
// without dependencies.
func NewNoDependenciesError() *MutationError {
	return &MutationError{
		Code:    ErrCodeNoDependencies,
		Message: "latest holder requires at least one dependency",
	}
}
