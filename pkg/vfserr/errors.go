// Package vfserr provides the structured error system for the in-memory
// filesystem engine: a fixed set of error kinds, each carrying the path,
// attribute spec, and component/operation context that produced it.
package vfserr

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Kind identifies the class of failure a filesystem operation can report.
// The set is closed and mirrors the engine's error taxonomy: callers are
// expected to switch on Kind (via Is or KindOf), not on message text.
type Kind string

const (
	// NotFound indicates a path component was absent during resolution.
	NotFound Kind = "not_found"
	// AlreadyExists indicates a create verb targeted an existing entry
	// without a replace option.
	AlreadyExists Kind = "already_exists"
	// NotADirectory indicates a verb expected a Directory but found
	// another node kind.
	NotADirectory Kind = "not_a_directory"
	// IsADirectory indicates a verb refused to operate on a Directory.
	IsADirectory Kind = "is_a_directory"
	// DirectoryNotEmpty indicates delete or move was refused because the
	// target directory still has entries.
	DirectoryNotEmpty Kind = "directory_not_empty"
	// Loop indicates a symbolic-link chain exceeded the traversal limit.
	Loop Kind = "loop"
	// Unsupported indicates the operation or attribute is not enabled by
	// the filesystem's configuration.
	Unsupported Kind = "unsupported"
	// InvalidFormat indicates an attribute spec failed to parse.
	InvalidFormat Kind = "invalid_format"
	// InvalidAttribute indicates a single unknown attribute name.
	InvalidAttribute Kind = "invalid_attribute"
	// InvalidAttributes indicates a malformed multi-name attribute list
	// (e.g. a wildcard mixed with other names).
	InvalidAttributes Kind = "invalid_attributes"
	// InvalidArgument indicates a value of the wrong type, or a
	// malformed path string.
	InvalidArgument Kind = "invalid_argument"
	// OutOfSpace indicates block allocation would exceed the configured
	// maximum size.
	OutOfSpace Kind = "out_of_space"
	// Closed indicates the filesystem or a handle has already been
	// closed.
	Closed Kind = "closed"
	// Interrupted indicates a blocking I/O wait was interrupted.
	Interrupted Kind = "interrupted"
	// AtomicViolation indicates an ATOMIC_MOVE was requested but could
	// not be satisfied.
	AtomicViolation Kind = "atomic_violation"
	// AccessDenied indicates a permission-style denial.
	AccessDenied Kind = "access_denied"
	// Internal indicates a defect inside the engine, including a
	// recovered panic at an operation boundary.
	Internal Kind = "internal"
)

// Error is a structured error carrying the failing operation's kind, the
// path and attribute spec involved, and free-form context for diagnostics.
type Error struct {
	Kind      Kind              `json:"kind"`
	Message   string            `json:"message"`
	Path      string            `json:"path,omitempty"`
	Attribute string            `json:"attribute,omitempty"`
	Component string            `json:"component,omitempty"`
	Operation string            `json:"operation,omitempty"`
	Context   map[string]string `json:"context,omitempty"`
	Cause     error             `json:"-"`
	Timestamp time.Time         `json:"timestamp"`
}

// New creates an Error of the given kind with a message.
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:      kind,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Newf creates an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Component != "" {
		if e.Operation != "" {
			fmt.Fprintf(&b, "[%s:%s] ", e.Component, e.Operation)
		} else {
			fmt.Fprintf(&b, "[%s] ", e.Component)
		}
	}
	fmt.Fprintf(&b, "%s", e.Kind)
	if e.Path != "" {
		fmt.Fprintf(&b, " %q", e.Path)
	}
	if e.Attribute != "" {
		fmt.Fprintf(&b, " attr=%q", e.Attribute)
	}
	fmt.Fprintf(&b, ": %s", e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %s", e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause, if any, for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind, so that
// errors.Is(err, vfserr.New(vfserr.NotFound, "")) works against any
// instance regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// JSON renders the error as a JSON string for structured logging.
func (e *Error) JSON() string {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal vfserr.Error: %s"}`, err.Error())
	}
	return string(data)
}

// WithPath sets the path the error occurred on.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithAttribute sets the attribute spec the error occurred on.
func (e *Error) WithAttribute(attr string) *Error {
	e.Attribute = attr
	return e
}

// WithComponent sets the component that raised the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// WithOperation sets the verb being performed when the error occurred.
func (e *Error) WithOperation(op string) *Error {
	e.Operation = op
	return e
}

// WithCause attaches an underlying cause.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithContext attaches a free-form context key/value pair.
func (e *Error) WithContext(key, value string) *Error {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// Is reports whether err is a *Error of the given kind, walking the
// Unwrap chain.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// KindOf returns the Kind of err if it (or something it wraps) is a
// *Error, and false otherwise.
func KindOf(err error) (Kind, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return "", false
		}
		err = u.Unwrap()
	}
	return "", false
}
