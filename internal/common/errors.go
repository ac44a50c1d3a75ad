// Package common defines the sentinel errors and small byte helpers shared by
// every credvault layer. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Vault lifecycle errors.
	ErrAlreadyExists   = errors.New("vault already exists")
	ErrNotInitialized  = errors.New("vault is not initialized")
	ErrLocked          = errors.New("vault is locked")
	ErrTooManyAttempts = errors.New("too many unlock attempts")

	// ErrAuthentication covers both a wrong key and a tampered ciphertext.
	ErrAuthentication = errors.New("cannot unlock vault")

	// Record-level errors.
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")

	// Key rotation errors.
	ErrRotationInProgress = errors.New("key rotation in progress")
	ErrNoRotation         = errors.New("no key rotation in progress")

	// ErrStorage wraps every backend fault.
	ErrStorage = errors.New("storage error")
)

// StorageError tags err as a backend fault while keeping it reachable via
// errors.Is / errors.As. A nil err yields nil.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
