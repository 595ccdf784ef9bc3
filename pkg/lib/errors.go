package lib

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode identifies categories of errors
type ErrorCode string

const (
	// Startup and configuration errors, fatal to the component being built
	ErrorCodeConfiguration ErrorCode = "CONFIGURATION"
	ErrorCodeUnknownModel  ErrorCode = "UNKNOWN_MODEL"
	ErrorCodeStartup       ErrorCode = "STARTUP_FAILED"
	ErrorCodePipeCreation  ErrorCode = "PIPE_CREATION_FAILED"

	// Driver server runtime errors, recoverable per call
	ErrorCodeNotConnected       ErrorCode = "NOT_CONNECTED"
	ErrorCodeAlreadyRunning     ErrorCode = "ALREADY_RUNNING"
	ErrorCodeChannelUnavailable ErrorCode = "CHANNEL_UNAVAILABLE"
	ErrorCodeTransport          ErrorCode = "TRANSPORT_FAILED"
	ErrorCodeDriverLoad         ErrorCode = "DRIVER_LOAD_FAILED"

	// Observatory errors
	ErrorCodeNoScheduler ErrorCode = "NO_SCHEDULER"
)

// Sentinels for errors.Is. Matching is by Code only.
var (
	ErrConfiguration      = &Error{Code: ErrorCodeConfiguration}
	ErrUnknownModel       = &Error{Code: ErrorCodeUnknownModel}
	ErrStartup            = &Error{Code: ErrorCodeStartup}
	ErrPipeCreation       = &Error{Code: ErrorCodePipeCreation}
	ErrNotConnected       = &Error{Code: ErrorCodeNotConnected}
	ErrAlreadyRunning     = &Error{Code: ErrorCodeAlreadyRunning}
	ErrChannelUnavailable = &Error{Code: ErrorCodeChannelUnavailable}
	ErrTransport          = &Error{Code: ErrorCodeTransport}
	ErrDriverLoad         = &Error{Code: ErrorCodeDriverLoad}
	ErrNoScheduler        = &Error{Code: ErrorCodeNoScheduler}
)

// Error is the structured error returned by every component of the control plane.
type Error struct {
	// Code identifies the error type
	Code ErrorCode

	// Message is the primary error message
	Message string

	// Context provides additional details
	Context map[string]interface{}

	// Cause is the underlying error (if any)
	Cause error

	// Suggestion provides actionable guidance for resolving the error
	Suggestion string
}

// NewError creates a new Error with the given code and message
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var contextParts []string
		for _, k := range keys {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		parts = append(parts, fmt.Sprintf("Context: %s", strings.Join(contextParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("Cause: %v", e.Cause))
	}

	if e.Suggestion != "" {
		parts = append(parts, fmt.Sprintf("Suggestion: %s", e.Suggestion))
	}

	return strings.Join(parts, "; ")
}

// Unwrap returns the underlying error for errors.Is/As compatibility
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithContext adds context information to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithCause adds the underlying cause to the error
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithSuggestion adds an actionable suggestion to the error
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or "" if there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Common error constructors

// NewConfigurationError creates an error for missing or malformed configuration
func NewConfigurationError(field, reason string) *Error {
	return NewError(ErrorCodeConfiguration,
		fmt.Sprintf("Invalid configuration for '%s': %s", field, reason)).
		WithContext("field", field)
}

// NewUnknownModelError creates an error for a model name with no registered constructor
func NewUnknownModelError(kind, model string) *Error {
	return NewError(ErrorCodeUnknownModel,
		fmt.Sprintf("No %s model named '%s'", kind, model)).
		WithContext("kind", kind).
		WithContext("model", model).
		WithSuggestion("Run 'pocs models' to list the registered models")
}

// NewExecutableNotFoundError creates an error for a server binary missing from PATH
func NewExecutableNotFoundError(command string, cause error) *Error {
	return NewError(ErrorCodeStartup,
		fmt.Sprintf("Cannot find '%s' executable", command)).
		WithContext("command", command).
		WithCause(cause).
		WithSuggestion(fmt.Sprintf("Install %s or add its directory to PATH", command))
}

// NewProcessStartError creates an error for a server process that failed to spawn
func NewProcessStartError(command string, cause error) *Error {
	return NewError(ErrorCodeStartup,
		fmt.Sprintf("Failed to start '%s'", command)).
		WithContext("command", command).
		WithCause(cause)
}

// NewPipeCreationError creates an error for a named pipe that could not be created
func NewPipeCreationError(path string, cause error) *Error {
	return NewError(ErrorCodePipeCreation,
		fmt.Sprintf("Cannot create FIFO at %s", path)).
		WithContext("fifo", path).
		WithCause(cause)
}

// NewNotConnectedError creates an error for an operation on a stopped driver server
func NewNotConnectedError(op string) *Error {
	return NewError(ErrorCodeNotConnected,
		fmt.Sprintf("Cannot %s: driver server is not running", op)).
		WithSuggestion("Start the driver server and retry")
}

// NewAlreadyRunningError creates an error for a second start of a live server
func NewAlreadyRunningError(pid int) *Error {
	return NewError(ErrorCodeAlreadyRunning, "Driver server is already running").
		WithContext("pid", pid)
}

// NewChannelUnavailableError creates an error for a send attempted without a live reader process or FIFO
func NewChannelUnavailableError(path, reason string) *Error {
	return NewError(ErrorCodeChannelUnavailable,
		fmt.Sprintf("Command channel unavailable: %s", reason)).
		WithContext("fifo", path)
}

// NewTransportError creates an error for a write to the FIFO that did not complete
func NewTransportError(path string, cause error) *Error {
	return NewError(ErrorCodeTransport, "Problem writing to FIFO").
		WithContext("fifo", path).
		WithCause(cause)
}

// NewDriverLoadError creates an error for a load command that could not be delivered
func NewDriverLoadError(device, driver string, cause error) *Error {
	return NewError(ErrorCodeDriverLoad,
		fmt.Sprintf("Problem loading %s (%s) driver", device, driver)).
		WithContext("device", device).
		WithContext("driver", driver).
		WithCause(cause)
}

// NewNoSchedulerError creates an error for a target request without a scheduler
func NewNoSchedulerError() *Error {
	return NewError(ErrorCodeNoScheduler, "No scheduler configured for observatory").
		WithSuggestion("Check base_dir and targets_file in the configuration")
}
