package batch

import (
	"errors"
	"fmt"
)

var (
	ErrMissingInput = errors.New("missing required input")
	ErrFileType     = errors.New("invalid file type")
	ErrNoNames      = errors.New("names file contains no names")
	ErrTooLarge     = errors.New("upload too large")
	ErrProcessing   = errors.New("processing failed")
)

// NameError reports the name that stopped a batch.
type NameError struct {
	Index int
	Name  string
	Err   error
}

func (e *NameError) Error() string {
	return fmt.Sprintf("generate document %d for %q: %v", e.Index+1, e.Name, e.Err)
}

func (e *NameError) Unwrap() error { return e.Err }
