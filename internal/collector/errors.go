package collector

import "fmt"

// TraversalError reports a directory that could not be listed
type TraversalError struct {
	Path string
	Err  error
}

func (e *TraversalError) Error() string {
	return fmt.Sprintf("failed to list directory %s: %v", e.Path, e.Err)
}

func (e *TraversalError) Unwrap() error {
	return e.Err
}
