package errors

import (
	stderrors "errors"
	"fmt"

	"gofit/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, keeping the code of the first AppError in the chain
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    Classify(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the first AppError in the chain, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Classify maps domain errors onto application error codes
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, core.ErrInvalidData):
		return CodeDataLoad
	case core.IsRegistryError(err):
		return CodeFunctionLoad
	case core.IsFittingError(err):
		if stderrors.Is(err, core.ErrFittingConvergence) {
			return CodeFitFailed
		}
		return CodeInvalidInput
	case core.IsDatasetError(err), stderrors.Is(err, core.ErrParameterCount):
		return CodeInvalidInput
	default:
		return CodeInternalError
	}
}

// Predefined error codes
const (
	CodeConfigInvalid = "CONFIG_INVALID"
	CodeDataLoad      = "DATA_LOAD_ERROR"
	CodeFunctionLoad  = "FUNCTION_LOAD_ERROR"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeFitFailed     = "FIT_FAILED"
	CodeOutput        = "OUTPUT_ERROR"
	CodeInternalError = "INTERNAL_ERROR"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DataLoad(path string, cause error) *AppError {
	return &AppError{
		Code:    CodeDataLoad,
		Message: fmt.Sprintf("failed to load data from %s", path),
		Cause:   cause,
	}
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func OutputError(cause error) *AppError {
	return &AppError{
		Code:    CodeOutput,
		Message: "failed to write fit report",
		Cause:   cause,
	}
}
