package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Dataset errors
	ErrUnknownColumn   = errors.New("unknown column")
	ErrIndexOutOfRange = errors.New("record index out of range")
	ErrLengthMismatch  = errors.New("length mismatch")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrColumnInUse     = errors.New("column is assigned to a role")
	ErrEmptyDataset    = errors.New("dataset has no columns")
	ErrRoleUnset       = errors.New("column role is not set")
	ErrInvalidData     = errors.New("invalid data")

	// Registry errors
	ErrNameCollision   = errors.New("name already registered")
	ErrUnknownName     = errors.New("unknown fit function name")
	ErrFitFunctionLoad = errors.New("fit function load error")
	ErrParameterCount  = errors.New("wrong number of parameters")

	// Fitting errors
	ErrFittingData        = errors.New("fitting data error")
	ErrFittingConvergence = errors.New("fit did not converge")
)

// FitFunctionLoadError carries the exact user-facing message for registry lookups.
// It matches ErrFitFunctionLoad through errors.Is.
type FitFunctionLoadError struct {
	Message string
}

func (e *FitFunctionLoadError) Error() string {
	return e.Message
}

func (e *FitFunctionLoadError) Is(target error) bool {
	return target == ErrFitFunctionLoad
}

// Error constructors with context
func NewUnknownColumnError(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownColumn, name)
}

func NewIndexOutOfRangeError(index, length int) error {
	return fmt.Errorf("%w: index %d not in [0, %d)", ErrIndexOutOfRange, index, length)
}

func NewLengthMismatchError(what string, got, expected int) error {
	return fmt.Errorf("%w: %s has length %d, expected %d", ErrLengthMismatch, what, got, expected)
}

func NewNameCollisionError(name string) error {
	return fmt.Errorf("%w: %s", ErrNameCollision, name)
}

func NewUnknownNameError(name string) error {
	return fmt.Errorf("%w: %s", ErrUnknownName, name)
}

func NewNotFoundLoadError(name string) error {
	return &FitFunctionLoadError{Message: fmt.Sprintf("No fit function or generator named %s", name)}
}

func NewNotGeneratorLoadError(name string) error {
	return &FitFunctionLoadError{Message: fmt.Sprintf("%s is not a generator and should not get parameters", name)}
}

func NewGeneratorArgsLoadError(name string, expected, got int) error {
	return &FitFunctionLoadError{Message: fmt.Sprintf("%s expects %d parameters, got %d", name, expected, got)}
}

func NewParameterCountError(name string, expected, got int) error {
	return fmt.Errorf("%w: %s expects %d parameters, got %d", ErrParameterCount, name, expected, got)
}

func NewFittingDataError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrFittingData, fmt.Sprintf(format, args...))
}

func NewConvergenceError(function string, cause error) error {
	return fmt.Errorf("%w: fitting %s: %w", ErrFittingConvergence, function, cause)
}

func NewInvalidDataError(column string, row int, value string) error {
	return fmt.Errorf("%w: column %q row %d: cannot parse %q as a number", ErrInvalidData, column, row, value)
}

// Error checking helpers
func IsDatasetError(err error) bool {
	return errors.Is(err, ErrUnknownColumn) ||
		errors.Is(err, ErrIndexOutOfRange) ||
		errors.Is(err, ErrLengthMismatch) ||
		errors.Is(err, ErrDuplicateColumn) ||
		errors.Is(err, ErrColumnInUse) ||
		errors.Is(err, ErrEmptyDataset) ||
		errors.Is(err, ErrRoleUnset)
}

func IsRegistryError(err error) bool {
	return errors.Is(err, ErrNameCollision) ||
		errors.Is(err, ErrUnknownName) ||
		errors.Is(err, ErrFitFunctionLoad)
}

func IsFittingError(err error) bool {
	return errors.Is(err, ErrFittingData) ||
		errors.Is(err, ErrFittingConvergence)
}
