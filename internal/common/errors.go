package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error taxonomy for a single document run. None of these abort a batch.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrExtraction   = errors.New("text extraction failed")
	ErrTransport    = errors.New("model transport failed")
	ErrParse        = errors.New("no json object in model response")
	ErrSink         = errors.New("sink write failed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ExtractionError tags a backend failure for path as ErrExtraction.
func ExtractionError(path string, cause error) error {
	return NewAppError("EXTRACTION_FAILED", path, errors.Join(ErrExtraction, cause))
}

// TransportError tags a language-model request failure as ErrTransport.
func TransportError(cause error) error {
	return NewAppError("MODEL_TRANSPORT", "language model request failed", errors.Join(ErrTransport, cause))
}

// SinkError tags a persistence failure in the named sink as ErrSink.
func SinkError(sink string, cause error) error {
	return NewAppError("SINK_WRITE", sink, errors.Join(ErrSink, cause))
}
