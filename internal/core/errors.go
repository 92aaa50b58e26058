package core

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotInitialized   = errors.New("envseal not initialized")
	ErrAlreadyExists    = errors.New("envseal already exists")
	ErrWrongPassword    = errors.New("wrong password")
	ErrPasswordRequired = errors.New("password required")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrLocked           = errors.New("project is locked")
	ErrLegacyRejected   = errors.New("project has no verification record")
	ErrInvalidName      = errors.New("invalid name")
	ErrSessionClosed    = errors.New("session closed")
)

// LockedError is returned while a project is in the Locked state
type LockedError struct {
	Project   string
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("project %s is locked for another %s", e.Project, formatRemaining(e.Remaining))
}

func (e *LockedError) Is(target error) bool {
	return target == ErrLocked
}

// WrongPasswordError is returned for a failed verification. Locked is set
// when this failure engaged the lock.
type WrongPasswordError struct {
	Project           string
	RemainingAttempts int
	Locked            bool
	LockedFor         time.Duration
}

func (e *WrongPasswordError) Error() string {
	if e.Locked {
		return fmt.Sprintf("wrong password: project %s locked for %s", e.Project, formatRemaining(e.LockedFor))
	}
	return fmt.Sprintf("wrong password: %d attempt(s) left for project %s", e.RemainingAttempts, e.Project)
}

func (e *WrongPasswordError) Is(target error) bool {
	return target == ErrWrongPassword || (e.Locked && target == ErrLocked)
}

// formatRemaining rounds a lock duration up to whole minutes
func formatRemaining(d time.Duration) string {
	if d <= 0 {
		return "0m"
	}
	return (d + time.Minute - 1).Truncate(time.Minute).String()
}
