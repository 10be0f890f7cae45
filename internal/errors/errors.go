// Package errors provides centralized error definitions and error handling utilities
// for tandem. It defines the errors raised while driving external tool instances,
// semantic error types, error constructors with context wrapping, and error
// classification helpers.
//
// # Error Types
//
// Tool errors are raised by a toolctl backend:
//   - CreationError: the tool could not open an instance for a source
//   - DeletionError: the tool could not delete an instance
//
// Coordinator errors are raised by the instance coordinator:
//   - InitializationError: startup failed; fatal, the process exits 1
//   - OperationError: a single close or pre-close action failed; recovered
//   - PartialCloseError: one or more OperationErrors from a close-all pass
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - ValidationError: invalid input or state
//
// # Usage
//
//	err := errors.NewCreationError("tmux new-session failed", cause).WithSource("doc_en.txt")
//
//	var initErr *errors.InitializationError
//	if errors.As(err, &initErr) {
//	    log.Error("startup failed", "source", initErr.Source, "created", initErr.Created)
//	}
//
//	var partial *errors.PartialCloseError
//	if errors.As(err, &partial) {
//	    log.Warn("close incomplete", "failures", len(partial.Failures))
//	}
//
// No error in this package is retryable by default: every call into the
// external tool is a single best-effort attempt.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Tool-related sentinel errors
var (
	// ErrCreationFailed indicates that the tool could not open an instance.
	ErrCreationFailed = New("instance creation failed")
	// ErrDeletionFailed indicates that the tool could not delete an instance.
	ErrDeletionFailed = New("instance deletion failed")
	// ErrRegistrationFailed indicates that a command or listener could not be attached.
	ErrRegistrationFailed = New("callback registration failed")
	// ErrInstanceDeleted indicates an operation on an instance that no longer exists.
	ErrInstanceDeleted = New("instance already deleted")
	// ErrToolUnavailable indicates the external tool could not be reached at all.
	ErrToolUnavailable = New("tool unavailable")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrOperationFailed indicates a general operation failure.
	ErrOperationFailed = New("operation failed")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// TandemError is the base interface for all tandem errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type TandemError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	// This is used by errors.Is() for error comparison.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// formatWithContext renders "prefix [k=v, ...]: message: cause".
func formatWithContext(prefix string, parts []string, message string, cause error) string {
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", prefix, strings.Join(parts, ", "))
	}
	if cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, message, cause)
	}
	return fmt.Sprintf("%s: %s", prefix, message)
}

// -----------------------------------------------------------------------------
// Tool Errors
// -----------------------------------------------------------------------------

// CreationError is returned by a tool when it cannot open an instance.
//
// Example:
//
//	err := errors.NewCreationError("editor exited immediately", cause).WithSource("doc_fr.txt")
//	fmt.Println(err) // "creation error [source=doc_fr.txt]: editor exited immediately: ..."
type CreationError struct {
	baseError
	Source string
}

// NewCreationError creates a new CreationError.
func NewCreationError(message string, cause error) *CreationError {
	return &CreationError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithSource adds the document source to the error context.
func (e *CreationError) WithSource(source string) *CreationError {
	e.Source = source
	return e
}

// Error returns the formatted error message.
func (e *CreationError) Error() string {
	var parts []string
	if e.Source != "" {
		parts = append(parts, fmt.Sprintf("source=%s", e.Source))
	}
	return formatWithContext("creation error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *CreationError) Is(target error) bool {
	if _, ok := target.(*CreationError); ok {
		return true
	}
	if target == ErrCreationFailed {
		return true
	}
	return e.baseError.Is(target)
}

// DeletionError is returned by a tool when it cannot delete an instance.
type DeletionError struct {
	baseError
	InstanceID string
}

// NewDeletionError creates a new DeletionError.
func NewDeletionError(message string, cause error) *DeletionError {
	return &DeletionError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithInstanceID adds an instance ID to the error context.
func (e *DeletionError) WithInstanceID(id string) *DeletionError {
	e.InstanceID = id
	return e
}

// Error returns the formatted error message.
func (e *DeletionError) Error() string {
	var parts []string
	if e.InstanceID != "" {
		parts = append(parts, fmt.Sprintf("instance=%s", e.InstanceID))
	}
	return formatWithContext("deletion error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *DeletionError) Is(target error) bool {
	if _, ok := target.(*DeletionError); ok {
		return true
	}
	if target == ErrDeletionFailed {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Coordinator Errors
// -----------------------------------------------------------------------------

// InitializationError reports a failed coordinator startup. It names the
// source that failed, where it sat in the requested order, and the IDs of
// the instances that were already created before the failure. Those
// instances are left open without any command or listener attached.
type InitializationError struct {
	baseError
	Source  string
	Index   int
	Created []string

	stack []uintptr
}

// NewInitializationError creates a new InitializationError and records the
// caller's stack so the failure can be reported with a trace.
func NewInitializationError(message string, cause error) *InitializationError {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	return &InitializationError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityCritical,
			userFacing: true,
		},
		Index: -1,
		stack: pcs[:n],
	}
}

// WithSource records which source failed and its position in the request.
func (e *InitializationError) WithSource(source string, index int) *InitializationError {
	e.Source = source
	e.Index = index
	return e
}

// WithCreated records the IDs of the instances opened before the failure.
func (e *InitializationError) WithCreated(created []string) *InitializationError {
	e.Created = created
	return e
}

// StackTrace returns the formatted frames captured when the error was created.
func (e *InitializationError) StackTrace() []string {
	if len(e.stack) == 0 {
		return nil
	}
	frames := runtime.CallersFrames(e.stack)
	var lines []string
	for {
		frame, more := frames.Next()
		lines = append(lines, fmt.Sprintf("%s\n\t%s:%d", frame.Function, frame.File, frame.Line))
		if !more {
			break
		}
	}
	return lines
}

// Error returns the formatted error message.
func (e *InitializationError) Error() string {
	var parts []string
	if e.Source != "" {
		parts = append(parts, fmt.Sprintf("source=%s", e.Source))
	}
	if e.Index >= 0 {
		parts = append(parts, fmt.Sprintf("index=%d", e.Index))
	}
	if len(e.Created) > 0 {
		parts = append(parts, fmt.Sprintf("created=%d", len(e.Created)))
	}
	return formatWithContext("initialization error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *InitializationError) Is(target error) bool {
	if _, ok := target.(*InitializationError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// OperationError reports a single failed close-time action. It is logged and
// recovered; it never aborts the remaining close work.
type OperationError struct {
	baseError
	Op         string
	InstanceID string
}

// NewOperationError creates a new OperationError for the named operation.
func NewOperationError(op string, cause error) *OperationError {
	return &OperationError{
		baseError: baseError{
			message:    op + " failed",
			cause:      cause,
			severity:   SeverityWarning,
			userFacing: true,
		},
		Op: op,
	}
}

// WithInstanceID adds an instance ID to the error context.
func (e *OperationError) WithInstanceID(id string) *OperationError {
	e.InstanceID = id
	return e
}

// Error returns the formatted error message.
func (e *OperationError) Error() string {
	var parts []string
	if e.InstanceID != "" {
		parts = append(parts, fmt.Sprintf("instance=%s", e.InstanceID))
	}
	return formatWithContext("operation error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *OperationError) Is(target error) bool {
	if _, ok := target.(*OperationError); ok {
		return true
	}
	if target == ErrOperationFailed {
		return true
	}
	return e.baseError.Is(target)
}

// PartialCloseError aggregates the OperationErrors of one close-all pass.
// Attempted is the number of deletion requests issued in that pass.
type PartialCloseError struct {
	Failures  []*OperationError
	Attempted int
}

// Error returns a summary followed by each failure on its own line.
func (e *PartialCloseError) Error() string {
	if len(e.Failures) == 1 {
		return fmt.Sprintf("close incomplete (1 of %d failed): %v", e.Attempted, e.Failures[0])
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "close incomplete (%d of %d failed):", len(e.Failures), e.Attempted)
	for i, f := range e.Failures {
		fmt.Fprintf(&sb, "\n  %d. %v", i+1, f)
	}
	return sb.String()
}

// Unwrap exposes every failure to errors.Is and errors.As.
func (e *PartialCloseError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// Severity returns SeverityWarning; a partial close is recovered locally.
func (e *PartialCloseError) Severity() Severity { return SeverityWarning }

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("instance", "tandem-1")
//	fmt.Println(err) // "instance 'tandem-1' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("at least one source is required")
//	err = err.WithField("sources")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}
	return formatWithContext("validation error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if target == ErrInvalidInput {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry. Nothing in tandem retries on its own; the
// report suggests running the command again.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var tandemErr TandemError
	if As(err, &tandemErr) {
		return tandemErr.IsRetryable()
	}
	return false
}

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var tandemErr TandemError
	if As(err, &tandemErr) {
		return tandemErr.IsUserFacing()
	}

	var partial *PartialCloseError
	return As(err, &partial)
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't carry one.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	// PartialCloseError is checked first: Unwrap() []error would otherwise
	// let As find the first OperationError inside it.
	if s, ok := err.(interface{ Severity() Severity }); ok {
		return s.Severity()
	}

	var tandemErr TandemError
	if As(err, &tandemErr) {
		return tandemErr.Severity()
	}
	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
// Unlike fmt.Errorf with %w, this returns nil for a nil error.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to open editor")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to kill session %s", name)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
