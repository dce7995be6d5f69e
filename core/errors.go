package core

import (
	"errors"
	"fmt"
)

// ErrResourceNotFound reports a configured template that does not exist.
var ErrResourceNotFound = errors.New("resource not found")

// TemplateError wraps a failure to load the template workbook.
type TemplateError struct {
	Path string
	Err  error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %s: %v", e.Path, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}
