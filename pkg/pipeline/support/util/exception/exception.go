// Package exception provides custom error types and error handling utilities for the pipeline engine.
// It standardizes errors that occur during orchestration, separating operational step failures
// (absorbed into job state) from precondition violations (propagated to the caller).
package exception

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"
)

// errorRegistry maps error names referenced in configuration to concrete Go error instances.
// It holds error instances (singletons) for comparison using errors.Is.
var errorRegistry = make(map[string]error)

// registryMutex protects access to errorRegistry.
var registryMutex sync.RWMutex

// RegisterErrorType registers an error type in the registry.
// Registered error types are referenced by name in executor configurations and
// by the IsErrorOfType function for error classification.
//
// name: A unique identifier for the error type.
// prototype: An instance of the error to be registered. Used for comparison with errors.Is.
//
// If prototype is nil or name is empty, this function will panic.
func RegisterErrorType(name string, prototype error) {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if name == "" {
		panic("Error type name cannot be empty")
	}
	if prototype == nil {
		panic(fmt.Sprintf("Cannot register nil prototype for name: %s", name))
	}

	errorRegistry[name] = prototype
}

// IsErrorTypeRegistered checks if the specified error type name is registered in the registry.
func IsErrorTypeRegistered(name string) bool {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	_, ok := errorRegistry[name]
	return ok
}

// PipelineError is a custom error type that occurs during pipeline orchestration.
// It holds the module where the error occurred, a message, the wrapped original error,
// and a flag indicating whether it is retryable by an executor.
type PipelineError struct {
	// Module indicates the module where the error occurred (e.g., "orchestrator", "catalog", "repository").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped original error.
	OriginalErr error
	// isRetryable indicates whether this error is retryable.
	isRetryable bool
	// StackTrace is the stack trace at the time of the error (for debugging).
	StackTrace string
}

// NewPipelineError creates a new PipelineError instance.
// module: The module where the error occurred.
// message: The error message.
// originalErr: The original error to wrap.
// isRetryable: Whether this error is retryable.
func NewPipelineError(module, message string, originalErr error, isRetryable bool) *PipelineError {
	// Capture stack trace (for debugging purposes)
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	stackTrace := string(buf[:n])

	return &PipelineError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		isRetryable: isRetryable,
		StackTrace:  stackTrace,
	}
}

// NewPipelineErrorf creates a new PipelineError using a format string.
// An optional [isRetryable bool] and [originalErr error] are extracted from the
// end of the variadic arguments, in that order from the end:
// 1. [originalErr error]
// 2. [isRetryable bool]
// The remaining arguments are used for fmt.Sprintf.
//
// Example:
// NewPipelineErrorf("orchestrator", "unknown step %q", "ocr", false, errCatalogMiss)
// -> message: `unknown step "ocr"`, isRetryable: false, originalErr: errCatalogMiss
func NewPipelineErrorf(module, format string, a ...interface{}) *PipelineError {
	var originalErr error
	isRetryable := false
	args := a

	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			originalErr = err
			args = args[:len(args)-1]
		}
	}

	if len(args) > 0 {
		if b, ok := args[len(args)-1].(bool); ok {
			isRetryable = b
			args = args[:len(args)-1]
		}
	}

	message := fmt.Sprintf(format, args...)

	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	stackTrace := string(buf[:n])

	return &PipelineError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		isRetryable: isRetryable,
		StackTrace:  stackTrace,
	}
}

// Error implements the error interface.
// It returns the error's module, message, and the string representation of the original error.
func (e *PipelineError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error for errors.Unwrap.
func (e *PipelineError) Unwrap() error {
	return e.OriginalErr
}

// IsRetryable returns whether this error is retryable.
func (e *PipelineError) IsRetryable() bool {
	return e.isRetryable
}

// IsPipelineError determines if the given error is of type PipelineError.
func IsPipelineError(err error) bool {
	if err == nil {
		return false
	}
	var pe *PipelineError
	return errors.As(err, &pe)
}

// IsTemporary determines if an error is temporary (e.g., network error, provider timeout).
// If it's a PipelineError, its IsRetryable flag takes precedence.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.IsRetryable()
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "EOF")
}

// IsErrorOfType checks if an error matches a specified type name (string).
// errorTypeName can be a Go error type name (e.g., "*net.OpError"), a registered
// sentinel name, or a substring of an error message (e.g., "connection refused").
// It checks in order: registered sentinel errors (errors.Is), substring of error
// message, and type name comparison using reflection.
func IsErrorOfType(err error, errorTypeName string) bool {
	if err == nil {
		return false
	}

	registryMutex.RLock()
	targetError, ok := errorRegistry[errorTypeName]
	registryMutex.RUnlock()

	if ok {
		if errors.Is(err, targetError) {
			return true
		}
	}

	currentErr := err
	for currentErr != nil {
		if strings.Contains(currentErr.Error(), errorTypeName) {
			return true
		}

		errType := reflect.TypeOf(currentErr)
		if errType != nil {
			if errType.String() == errorTypeName || (errType.Kind() == reflect.Ptr && errType.Elem().String() == errorTypeName) {
				return true
			}
		}

		currentErr = errors.Unwrap(currentErr)
	}

	return false
}

func init() {
	// Register sentinel errors so that errors.Is can detect them by constant name.
	RegisterErrorType("context.DeadlineExceeded", context.DeadlineExceeded)
	RegisterErrorType("context.Canceled", context.Canceled)
	RegisterErrorType("sql.ErrNoRows", sql.ErrNoRows)
}

// ExtractErrorMessage extracts the error message string from an error.
// For PipelineError, it returns the cleaner Message field.
// Otherwise, it returns the standard Error() string.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}
