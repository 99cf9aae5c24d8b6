package extract

import (
	"errors"
	"fmt"
	"io/fs"
)

// Error is the terminal failure signal of a conversion pipeline. Stage names
// the pipeline step that failed.
type Error struct {
	Stage string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("conversion failed at %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func convErr(stage string, err error) *Error {
	return &Error{Stage: stage, Err: err}
}

// NotFound reports whether err is a conversion error caused by a missing
// source file.
func NotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
