package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrActiveSessionExists = errors.New("organization already has an active session")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountDisabled     = errors.New("account is deactivated")
	ErrCommitInProgress    = errors.New("a commit is already in progress")
	ErrNoCaller            = errors.New("no authenticated caller")
	ErrNotInitialized      = errors.New("scanner is not initialized")
)

// ConfigurationError means the caller cannot be tied to an organization.
// The user has to contact an administrator.
type ConfigurationError struct {
	UserID string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for user %s: %s", e.UserID, e.Reason)
}

// IncompleteInputError lists the required fields missing from a commit
type IncompleteInputError struct {
	Fields []string
}

func (e *IncompleteInputError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// PersistenceError wraps a failed remote read or write
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// CaptureError wraps a camera or decode engine startup failure
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture unavailable: %v", e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// Persistence wraps err as a PersistenceError unless it already is one
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
