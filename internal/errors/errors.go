package errors

import (
	"fmt"
)

// ErrorCategory represents different types of errors that can occur
type ErrorCategory string

const (
	// Input validation errors
	ErrorCategoryInvalidInput      ErrorCategory = "INVALID_INPUT"
	ErrorCategoryDimensionMismatch ErrorCategory = "DIMENSION_MISMATCH"

	// State and configuration errors
	ErrorCategoryStateCorruption ErrorCategory = "STATE_CORRUPTION"
	ErrorCategoryConfiguration   ErrorCategory = "CONFIG"

	// Data handling errors
	ErrorCategoryData ErrorCategory = "DATA"
)

// SelectorError represents a categorized error with context
type SelectorError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
}

// Error implements the error interface
func (e *SelectorError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *SelectorError) Unwrap() error {
	return e.Underlying
}

// NewSelectorError creates a new categorized error
func NewSelectorError(category ErrorCategory, component, operation, message string) *SelectorError {
	return &SelectorError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
	}
}

// WrapError wraps an existing error with category and context
func WrapError(err error, category ErrorCategory, component, operation string) *SelectorError {
	if err == nil {
		return nil
	}
	return &SelectorError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
	}
}

// NewInvalidInput creates an InvalidInput error with a formatted message
func NewInvalidInput(component, operation, format string, args ...interface{}) *SelectorError {
	return NewSelectorError(ErrorCategoryInvalidInput, component, operation, fmt.Sprintf(format, args...))
}

// NewDimensionMismatch creates a DimensionMismatch error for a vector of the
// wrong length
func NewDimensionMismatch(component, operation string, want, got int) *SelectorError {
	return NewSelectorError(ErrorCategoryDimensionMismatch, component, operation,
		fmt.Sprintf("expected dimension %d, got %d", want, got))
}

// NewStateCorruption creates a StateCorruption error with a formatted message
func NewStateCorruption(component, operation, format string, args ...interface{}) *SelectorError {
	return NewSelectorError(ErrorCategoryStateCorruption, component, operation, fmt.Sprintf(format, args...))
}

// IsCategory reports whether err is a SelectorError of the given category
func IsCategory(err error, category ErrorCategory) bool {
	se, ok := err.(*SelectorError)
	if !ok {
		return false
	}
	return se.Category == category
}
