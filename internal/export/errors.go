package export

import (
	"errors"
	"fmt"
)

var (
	// ErrExportUnsupported means the active exporter is the Default variant.
	ErrExportUnsupported = errors.New("export: custom frame export not supported")

	// ErrExportIOFailure covers filesystem and encoding failures.
	ErrExportIOFailure = errors.New("export: i/o failure")

	// ErrNoDataToExport means no frame has been computed yet.
	ErrNoDataToExport = errors.New("export: no computed frame to export")
)

// UnsupportedError is what the Default exporter always returns.
type UnsupportedError struct{}

func (e *UnsupportedError) Error() string {
	return "no custom frame exporter was supplied; this build cannot export raw frame data"
}

func (e *UnsupportedError) Is(target error) bool { return target == ErrExportUnsupported }

// IOError carries the underlying detail of a failed write.
type IOError struct {
	Path    string
	Detail  string
	Wrapped error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("export failed: %s", e.Detail)
	}
	return fmt.Sprintf("export to %s failed: %s", e.Path, e.Detail)
}

func (e *IOError) Is(target error) bool { return target == ErrExportIOFailure }

func (e *IOError) Unwrap() error { return e.Wrapped }

func ioFailure(path string, err error) error {
	return &IOError{Path: path, Detail: err.Error(), Wrapped: err}
}
