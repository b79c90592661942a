package markedfile

import (
	"errors"
	"fmt"
)

// ErrFilesystem is matched by every *FilesystemError via errors.Is.
var ErrFilesystem = errors.New("dieselsync: filesystem error")

// FilesystemError reports a failed filesystem operation on Path.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *FilesystemError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s", e.Op, e.Path)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrFilesystem.
func (e *FilesystemError) Is(target error) bool {
	return target == ErrFilesystem
}

// NewFilesystemError wraps err with the operation and path.
func NewFilesystemError(op, path string, err error) *FilesystemError {
	return &FilesystemError{Op: op, Path: path, Err: err}
}
