package main

import (
	"errors"

	"github.com/joe-antognini/zoia/internal/config"
)

const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // Any classified error (unknown identifier, duplicate, fetch failure, ...)
	ExitConfigError = 2 // Configuration missing or invalid
)

// codedError attaches an exit code to an error.
type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, err: err}
}

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.code
	}
	if errors.Is(err, config.ErrNotConfigured) {
		return ExitConfigError
	}
	return ExitError
}
