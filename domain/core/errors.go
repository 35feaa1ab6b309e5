package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Model output failures (retried locally before falling back)
	ErrParse      = errors.New("model output not parseable")
	ErrSchema     = errors.New("model output failed schema validation")
	ErrInvocation = errors.New("model invocation failed")

	// Data failures (fatal: no grounded analysis without data)
	ErrDataLoad = errors.New("dataset load failed")

	// Context integrity
	ErrUnknownHypothesis = errors.New("validation references unknown hypothesis")
	ErrUnknownStage      = errors.New("unknown pipeline stage")
)

// NewParseError wraps a JSON decoding failure as a parse error
func NewParseError(cause error) error {
	return fmt.Errorf("%w: %v", ErrParse, cause)
}

// NewInvocationError wraps a transport-level model failure
func NewInvocationError(cause error) error {
	return fmt.Errorf("%w: %v", ErrInvocation, cause)
}

// NewDataLoadError wraps a dataset collaborator failure
func NewDataLoadError(cause error) error {
	return fmt.Errorf("%w: %v", ErrDataLoad, cause)
}

// Error checking helpers
func IsParseError(err error) bool      { return errors.Is(err, ErrParse) }
func IsSchemaError(err error) bool     { return errors.Is(err, ErrSchema) }
func IsInvocationError(err error) bool { return errors.Is(err, ErrInvocation) }
func IsDataLoadError(err error) bool   { return errors.Is(err, ErrDataLoad) }
