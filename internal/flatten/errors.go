package flatten

import "fmt"

// OutputDirectoryError reports a failure to reset the output directory.
// It is fatal: no file is written when it occurs.
type OutputDirectoryError struct {
	Path string
	Op   string // "validate", "remove" or "create"
	Err  error
}

func (e *OutputDirectoryError) Error() string {
	return fmt.Sprintf("output directory %s: %s failed: %v", e.Path, e.Op, e.Err)
}

func (e *OutputDirectoryError) Unwrap() error {
	return e.Err
}

// FileProcessingError reports a source file that could not be read or whose copy could not be written
type FileProcessingError struct {
	Path string
	Op   string // "read" or "write"
	Err  error
}

func (e *FileProcessingError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileProcessingError) Unwrap() error {
	return e.Err
}
