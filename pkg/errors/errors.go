// Package errors provides structured error types for tilesmith.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the batch pipeline
//   - Machine-readable error codes for programmatic handling
//   - A clear split between per-recipe failures and fatal run failures
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (fatal, reported before any work)
//   - MISSING_*: Unresolvable references (recoverable, per recipe)
//   - RENDER_* / OUTPUT_*: Per-job failures (recoverable, per recipe)
//   - MANIFEST_*: Layer store or recipe set failures (fatal)
//   - INTERNAL_*: Unexpected internal errors
//
// # Typed Errors
//
// The pipeline's failure taxonomy is expressed as concrete types that all
// carry a [Code]: [MissingLayerError], [RenderError], [OutputError],
// [InvalidResolutionError] and [ManifestLoadError]. Use [Recoverable] to
// decide whether an error is attributed to a single recipe or aborts the run.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "invalid recipe name: %s", name)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeManifestLoad, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidResolution Code = "INVALID_RESOLUTION"
	ErrCodeInvalidPath       Code = "INVALID_PATH"
	ErrCodeInvalidConfig     Code = "INVALID_CONFIG"

	// Per-recipe errors
	ErrCodeMissingLayer Code = "MISSING_LAYER"
	ErrCodeRender       Code = "RENDER_FAILED"
	ErrCodeOutput       Code = "OUTPUT_FAILED"

	// Fatal run errors
	ErrCodeManifestLoad Code = "MANIFEST_LOAD"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// coder is implemented by every error type in this package.
type coder interface {
	error
	ErrorCode() Code
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or a typed error with a
// matching code.
func Is(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		if c, ok := err.(coder); ok && c.ErrorCode() == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no error in the chain carries a code.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c coder
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return ""
}

// Recoverable reports whether err is attributed to a single recipe and
// must not stop the run.
func Recoverable(err error) bool {
	switch GetCode(err) {
	case ErrCodeMissingLayer, ErrCodeRender, ErrCodeOutput:
		return true
	}
	return false
}

// =============================================================================
// Typed errors
// =============================================================================

// MissingLayerError reports a recipe that references layers absent from the
// layer store. Layers lists every missing identifier in reference order.
type MissingLayerError struct {
	Recipe string
	Layers []string
}

func (e *MissingLayerError) Error() string {
	msg := "missing layer(s) " + strings.Join(e.Layers, ", ")
	if e.Recipe == "" {
		return msg
	}
	return fmt.Sprintf("recipe %q: %s", e.Recipe, msg)
}

// ErrorCode returns ErrCodeMissingLayer.
func (e *MissingLayerError) ErrorCode() Code { return ErrCodeMissingLayer }

// Kind returns the taxonomy name used in run logs.
func (e *MissingLayerError) Kind() string { return "MissingLayerError" }

// Detail returns the missing layer ids for run logs.
func (e *MissingLayerError) Detail() string { return strings.Join(e.Layers, ",") }

// RenderError reports malformed or unsupported geometry found while
// rasterizing a document.
type RenderError struct {
	Element string // element name, when known
	Reason  string
	Cause   error
}

func (e *RenderError) Error() string {
	msg := "render: " + e.Detail()
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RenderError) Unwrap() error { return e.Cause }

// ErrorCode returns ErrCodeRender.
func (e *RenderError) ErrorCode() Code { return ErrCodeRender }

// Kind returns the taxonomy name used in run logs.
func (e *RenderError) Kind() string { return "RenderError" }

// Detail returns a one-line description for run logs.
func (e *RenderError) Detail() string {
	if e.Element != "" {
		return "<" + e.Element + ">: " + e.Reason
	}
	return e.Reason
}

// NewRenderError creates a RenderError for the named element.
func NewRenderError(element string, cause error, format string, args ...any) *RenderError {
	return &RenderError{Element: element, Reason: fmt.Sprintf(format, args...), Cause: cause}
}

// OutputError reports a bitmap that could not be persisted.
type OutputError struct {
	Path  string
	Cause error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *OutputError) Unwrap() error { return e.Cause }

// ErrorCode returns ErrCodeOutput.
func (e *OutputError) ErrorCode() Code { return ErrCodeOutput }

// Kind returns the taxonomy name used in run logs.
func (e *OutputError) Kind() string { return "OutputError" }

// Detail returns a one-line description for run logs.
func (e *OutputError) Detail() string { return e.Cause.Error() }

// InvalidResolutionError reports a resolution outside the supported set.
type InvalidResolutionError struct {
	Value string
	Min   int
	Max   int
}

func (e *InvalidResolutionError) Error() string {
	return fmt.Sprintf("invalid resolution %q: must be a power of two between %d and %d", e.Value, e.Min, e.Max)
}

// ErrorCode returns ErrCodeInvalidResolution.
func (e *InvalidResolutionError) ErrorCode() Code { return ErrCodeInvalidResolution }

// ManifestLoadError reports an unreadable or malformed layer store or
// recipe manifest. It is always fatal to the run.
type ManifestLoadError struct {
	Path  string
	Cause error
}

func (e *ManifestLoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ManifestLoadError) Unwrap() error { return e.Cause }

// ErrorCode returns ErrCodeManifestLoad.
func (e *ManifestLoadError) ErrorCode() Code { return ErrCodeManifestLoad }

// ManifestLoad creates a ManifestLoadError with a formatted cause.
func ManifestLoad(path string, format string, args ...any) *ManifestLoadError {
	return &ManifestLoadError{Path: path, Cause: fmt.Errorf(format, args...)}
}

// Ensure typed errors carry codes.
var (
	_ coder = (*MissingLayerError)(nil)
	_ coder = (*RenderError)(nil)
	_ coder = (*OutputError)(nil)
	_ coder = (*InvalidResolutionError)(nil)
	_ coder = (*ManifestLoadError)(nil)
)
