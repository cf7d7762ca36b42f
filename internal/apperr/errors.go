// Package apperr defines the typed failures shared across Ansuz components.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrPathNotConfigured means the templates folder path is unset.
	ErrPathNotConfigured = errors.New("templates folder not configured")
	// ErrPathInvalid means the configured path does not resolve to a folder.
	ErrPathInvalid = errors.New("templates folder path is not a folder")
	// ErrPathInaccessible means the folder exists but cannot be listed.
	ErrPathInaccessible = errors.New("templates folder cannot be read")

	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrInsertFailed means even the body-only fallback insertion failed;
	// the caller should tell the user to copy the template manually.
	ErrInsertFailed = errors.New("template insertion failed")
)

// DateFieldError reports an unparseable value for a date-typed preset field.
// It is fatal for the merge call that produced it.
type DateFieldError struct {
	Key   string
	Value string
}

func (e *DateFieldError) Error() string {
	return fmt.Sprintf("date field %q has unparseable value %q", e.Key, e.Value)
}

// ExpansionError reports a failed templater pre-processing pass. Callers
// recover by falling back to the unprocessed template text.
type ExpansionError struct {
	Expr string
	Err  error
}

func (e *ExpansionError) Error() string {
	return fmt.Sprintf("templater expansion of %q failed: %v", e.Expr, e.Err)
}

func (e *ExpansionError) Unwrap() error { return e.Err }
