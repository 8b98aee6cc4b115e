package labels

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the kind of every NotFoundError.
	ErrNotFound = errors.New("label archive not found")

	// ErrFormat is the kind of every FormatError.
	ErrFormat = errors.New("label archive unreadable")
)

// NotFoundError reports a label archive path that does not resolve.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", ErrNotFound.Error(), e.Path)
}

// Unwrap lets errors.Is match both ErrNotFound and the underlying os error.
func (e *NotFoundError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNotFound}
	}
	return []error{ErrNotFound, e.Err}
}

// FormatError reports an archive that exists but is not a keyed-array (npz) file.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrFormat.Error(), e.Path)
	}
	return fmt.Sprintf("%s: %s: %v", ErrFormat.Error(), e.Path, e.Err)
}

func (e *FormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFormat}
	}
	return []error{ErrFormat, e.Err}
}
