package download

import (
	"errors"
	"fmt"

	"github.com/handiism/tilefetch/internal/model"
)

var (
	// ErrFilesystem is the kind of every FilesystemError.
	ErrFilesystem = errors.New("cannot create destination directory")

	// ErrAcquisition is the kind of every AcquisitionError.
	ErrAcquisition = errors.New("tile acquisition failed")

	// ErrNotInitialized is returned by Run before a successful Initialize.
	ErrNotInitialized = errors.New("manager not initialized")
)

// FilesystemError reports a destination directory that could not be created.
type FilesystemError struct {
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s %s: %v", ErrFilesystem.Error(), e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() []error { return []error{ErrFilesystem, e.Err} }

// AcquisitionError reports one tile that could not be fetched or written.
type AcquisitionError struct {
	Tile model.TileID
	Err  error
}

func (e *AcquisitionError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("tile %s: %v", e.Tile, e.Err)
}

func (e *AcquisitionError) Unwrap() []error { return []error{ErrAcquisition, e.Err} }
