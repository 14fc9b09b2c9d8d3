package pipeline

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline errors.
type ErrorKind string

const (
	// ErrorKindSetup marks unrecoverable setup failures that abort the run.
	ErrorKindSetup ErrorKind = "setup"
	// ErrorKindDay marks per-day failures that are isolated and counted.
	ErrorKindDay ErrorKind = "day"
)

// PipelineError is a classified pipeline failure.
type PipelineError struct {
	Kind    ErrorKind
	Day     string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e == nil {
		return "unknown pipeline error"
	}
	if e.Day != "" {
		return fmt.Sprintf("[%s] day %s: %s", e.Kind, e.Day, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewSetupError creates an error for an unrecoverable setup failure.
func NewSetupError(message string, cause error) *PipelineError {
	return &PipelineError{
		Kind:    ErrorKindSetup,
		Message: message,
		Cause:   cause,
	}
}

// NewDayError creates an isolated per-day processing error.
func NewDayError(day string, cause error) *PipelineError {
	return &PipelineError{
		Kind:    ErrorKindDay,
		Day:     day,
		Message: cause.Error(),
		Cause:   cause,
	}
}

// IsSetupError reports whether err is an unrecoverable setup failure.
func IsSetupError(err error) bool {
	var pe *PipelineError
	return errors.As(err, &pe) && pe.Kind == ErrorKindSetup
}
