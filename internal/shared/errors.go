package shared

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorKind tags the category of a portal error.
type ErrorKind int

const (
	// KindValidation marks malformed input rejected before any request is sent.
	KindValidation ErrorKind = iota + 1
	// KindAuthRejected marks a 401 answer from the backend.
	KindAuthRejected
	// KindRoleMismatch marks an attempt to store a principal under the wrong namespace.
	KindRoleMismatch
	// KindStorageUnavailable marks a failed write to the session storage.
	KindStorageUnavailable
	// KindNetworkOrServer marks any other non-2xx answer or transport failure.
	KindNetworkOrServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindAuthRejected:
		return "auth_rejected"
	case KindRoleMismatch:
		return "role_mismatch"
	case KindStorageUnavailable:
		return "storage_unavailable"
	case KindNetworkOrServer:
		return "network_or_server_error"
	default:
		return "unknown"
	}
}

var (
	// ErrValidation matches every KindValidation error.
	ErrValidation = errors.New("validation error")
	// ErrAuthRejected matches every KindAuthRejected error.
	ErrAuthRejected = errors.New("authentication rejected")
	// ErrRoleMismatch matches every KindRoleMismatch error.
	ErrRoleMismatch = errors.New("role mismatch")
	// ErrStorageUnavailable matches every KindStorageUnavailable error.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrNetworkOrServer matches every KindNetworkOrServer error.
	ErrNetworkOrServer = errors.New("network or server error")
)

// Error is the single error shape surfaced to UI code and the CLI.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	RawBody    []byte
	Fields     map[string][]string
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the kind sentinels so errors.Is(err, ErrRoleMismatch) works on wrapped values.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	return target == e.Kind.sentinel()
}

// FieldMessages flattens field errors into stable "field: message" lines.
func (e *Error) FieldMessages() []string {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, name+": "+strings.Join(e.Fields[name], "; "))
	}
	return out
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindAuthRejected:
		return ErrAuthRejected
	case KindRoleMismatch:
		return ErrRoleMismatch
	case KindStorageUnavailable:
		return ErrStorageUnavailable
	case KindNetworkOrServer:
		return ErrNetworkOrServer
	default:
		return nil
	}
}

// ValidationError builds a KindValidation error carrying per-field messages.
func ValidationError(message string, fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// RoleMismatchError builds a KindRoleMismatch error.
func RoleMismatchError(message string) *Error {
	return &Error{Kind: KindRoleMismatch, Message: message}
}

// StorageUnavailableError wraps a backend failure.
func StorageUnavailableError(op string, err error) *Error {
	return &Error{Kind: KindStorageUnavailable, Message: "session storage unavailable during " + op, Err: err}
}

// AsError extracts the tagged error from err.
func AsError(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// KindOf reports the kind of err, or zero when err is not a tagged error.
func KindOf(err error) ErrorKind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return 0
}
