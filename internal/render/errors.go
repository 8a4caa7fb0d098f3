package render

import (
	"errors"
	"fmt"
)

// ErrUnsafeName is returned when a domain or machine name would place an
// output file outside its directory.
var ErrUnsafeName = errors.New("name is not a plain file name")

// WriteError wraps a failure to update one output file.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
