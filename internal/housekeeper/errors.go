package housekeeper

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// NotFoundError is returned when the housekeeping root does not exist or
// is not a directory. It is the only error an operation returns for
// filesystem problems; everything scoped to a single file becomes an
// ItemError on that file's outcome.
type NotFoundError struct {
	Root string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("root directory not found: %s (%v)", e.Root, e.Err)
	}
	return fmt.Sprintf("root directory not found: %s", e.Root)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is (or wraps) a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ErrorReason categorizes why a per-file operation failed
type ErrorReason int

const (
	ErrorPermissionDenied ErrorReason = iota
	ErrorFileInUse
	ErrorFileNotFound
	ErrorCreateDirFailed
	ErrorCrossDevice
	ErrorUnknown
)

// String returns a human-readable error reason
func (e ErrorReason) String() string {
	switch e {
	case ErrorPermissionDenied:
		return "Permission denied"
	case ErrorFileInUse:
		return "File is in use"
	case ErrorFileNotFound:
		return "File not found"
	case ErrorCreateDirFailed:
		return "Could not create destination directory"
	case ErrorCrossDevice:
		return "Destination is on another device"
	case ErrorUnknown:
		return "Unknown error"
	default:
		return "Unspecified error"
	}
}

// MarshalText encodes the reason as its human-readable form
func (e ErrorReason) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// ItemError describes a failure scoped to one file
type ItemError struct {
	Path     string
	Reason   ErrorReason
	Original error
}

// Error implements the error interface
func (e *ItemError) Error() string {
	return fmt.Sprintf("%s: %s (%v)", e.Path, e.Reason, e.Original)
}

func (e *ItemError) Unwrap() error {
	return e.Original
}

// MarshalText lets outcomes carry the error in JSON and YAML reports
func (e *ItemError) MarshalText() ([]byte, error) {
	return []byte(e.Error()), nil
}

// CategorizeError analyzes an error and returns a categorized ItemError
func CategorizeError(path string, err error) *ItemError {
	if err == nil {
		return nil
	}

	itemErr := &ItemError{
		Path:     path,
		Original: err,
		Reason:   ErrorUnknown,
	}

	if os.IsNotExist(err) {
		itemErr.Reason = ErrorFileNotFound
		return itemErr
	}

	if os.IsPermission(err) {
		itemErr.Reason = ErrorPermissionDenied
		return itemErr
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EACCES, syscall.EPERM:
			itemErr.Reason = ErrorPermissionDenied
		case syscall.EBUSY, syscall.ETXTBSY:
			itemErr.Reason = ErrorFileInUse
		case syscall.ENOENT:
			itemErr.Reason = ErrorFileNotFound
		case syscall.EXDEV:
			itemErr.Reason = ErrorCrossDevice
		}
	}

	return itemErr
}

// GroupErrors groups item errors by reason
func GroupErrors(errs []*ItemError) map[ErrorReason][]*ItemError {
	grouped := make(map[ErrorReason][]*ItemError)
	for _, err := range errs {
		grouped[err.Reason] = append(grouped[err.Reason], err)
	}
	return grouped
}
