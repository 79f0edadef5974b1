// Package errors defines the sentinel errors shared by the tree, the word
// index and the CLI, plus an AppError wrapper that carries a process exit
// code.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTree          = errors.New("tree is empty")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNoSuchElement      = errors.New("no such element")
	ErrUnreadable         = errors.New("source unreadable")
	ErrPersistenceLoad    = errors.New("snapshot load failed")
	ErrPersistenceSave    = errors.New("snapshot save failed")
	ErrUsage              = errors.New("invalid usage")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// Exit codes returned by the command-line tool.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitUnreadable  = 3
	ExitSaveFailure = 4
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, exitCode int, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCode,
	}
}

func Newf(sentinel error, exitCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCode,
	}
}

// ExitCode maps err to the process exit status. An AppError's own code wins
// over sentinel classification.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}

	switch {
	case errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.Is(err, ErrUnreadable):
		return ExitUnreadable
	case errors.Is(err, ErrPersistenceSave):
		return ExitSaveFailure
	default:
		return ExitFailure
	}
}
