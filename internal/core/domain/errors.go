package domain

import (
	"fmt"

	"go.trai.ch/zerr"
)

var (
	// ErrValidation is returned when the backend rejects a request as malformed (400/422)
	// or when a patch fails local validation.
	ErrValidation = zerr.New("validation failed")

	// ErrUnauthorized is returned when the backend rejects the credential (401/403).
	ErrUnauthorized = zerr.New("unauthorized")

	// ErrNotFound is returned when the requested resource does not exist (404).
	ErrNotFound = zerr.New("not found")

	// ErrConflict is returned when the backend reports a conflicting write (409).
	ErrConflict = zerr.New("conflict")

	// ErrNetwork is returned for every other failure, including exhausted retries and
	// raw connectivity failures.
	ErrNetwork = zerr.New("network error")

	// ErrEntityNotPresent is returned when an optimistic update targets an entity the store does not hold.
	ErrEntityNotPresent = zerr.New("entity not present for optimistic update")

	// ErrTypeMismatch is returned when an entity is written under a type it does not belong to.
	ErrTypeMismatch = zerr.New("entity stored under foreign type")

	// ErrInvalidTransition is returned when a job status transition is not allowed.
	ErrInvalidTransition = zerr.New("invalid status transition")

	// ErrProviderNotInitialized is returned when the persistence provider is used before Init.
	ErrProviderNotInitialized = zerr.New("persistence provider not initialized")

	// ErrProviderAlreadyInitialized is returned when Init is called twice without Reset.
	ErrProviderAlreadyInitialized = zerr.New("persistence provider already initialized")

	// ErrNotConnected is returned when an operation needs an open realtime connection.
	ErrNotConnected = zerr.New("realtime channel not connected")

	// ErrReconnectExhausted is reported when the realtime channel gives up reconnecting.
	ErrReconnectExhausted = zerr.New("realtime reconnection attempts exhausted")

	// ErrUnknownEntityType is returned when a name does not match any entity type.
	ErrUnknownEntityType = zerr.New("unknown entity type")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidConfig is returned when a config value is out of range.
	ErrInvalidConfig = zerr.New("invalid configuration")
)

// ErrorKind classifies a transport failure into the client-facing taxonomy.
type ErrorKind uint8

const (
	// KindNetwork covers connectivity failures, exhausted retries and unclassified statuses.
	KindNetwork ErrorKind = iota
	// KindValidation maps 400 and 422.
	KindValidation
	// KindUnauthorized maps 401 and 403.
	KindUnauthorized
	// KindNotFound maps 404.
	KindNotFound
	// KindConflict maps 409.
	KindConflict
)

// Sentinel returns the package sentinel matching the kind.
func (k ErrorKind) Sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindUnauthorized:
		return ErrUnauthorized
	case KindNotFound:
		return ErrNotFound
	case KindConflict:
		return ErrConflict
	default:
		return ErrNetwork
	}
}

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "network"
	}
}

// KindForStatus maps an HTTP status code to its error kind.
func KindForStatus(status int) ErrorKind {
	switch status {
	case 400, 422:
		return KindValidation
	case 401, 403:
		return KindUnauthorized
	case 404:
		return KindNotFound
	case 409:
		return KindConflict
	default:
		return KindNetwork
	}
}

// APIError is a classified transport failure.
// errors.Is matches it against the sentinel of its kind.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Method  string
	Path    string
	Message string
	Cause   error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Sentinel().Error()
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, msg)
}

// Is reports whether target is the sentinel for the error kind.
func (e *APIError) Is(target error) bool {
	return target == e.Kind.Sentinel()
}

// Unwrap exposes the underlying network cause, if any.
func (e *APIError) Unwrap() error {
	return e.Cause
}
