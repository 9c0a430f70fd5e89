package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the auth, wallet and store packages.
var (
	ErrValidation             = errors.New("validation failed")
	ErrDuplicateUser          = errors.New("user already exists")
	ErrInvalidCredentials     = errors.New("invalid username or password")
	ErrNotAuthenticated       = errors.New("not authenticated")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrAmountOverflow         = errors.New("amount exceeds the representable range")
	ErrStoreCorruption        = errors.New("store contains corrupt data")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrBalanceMismatch        = errors.New("balance does not match transaction log")
)

// ValidationError describes malformed input. It matches ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
